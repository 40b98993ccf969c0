package dto

import (
	"time"

	"posemarket-be/pkg/pose"

	"github.com/google/uuid"
)

type CreateSubmissionRequest struct {
	TaskId     uuid.UUID    `json:"task_id" validate:"required"`
	VideoRef   string       `json:"video_ref" validate:"required"`
	PoseData   []pose.Frame `json:"pose_data" validate:"required,min=1"`
	FrameCount int          `json:"frame_count" validate:"required,gt=0"`
	DurationMs int64        `json:"duration_ms" validate:"gte=0"`
	Redacted   bool         `json:"redacted"`
}

type SubmissionListRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Status string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type RejectSubmissionRequest struct {
	Feedback string `json:"feedback" validate:"required,min=3"`
}

type RateSubmissionRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type VerificationDTO struct {
	Verdict    string `json:"verdict"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
	Model      string `json:"model"`
}

type SubmissionResponse struct {
	Id               uuid.UUID        `json:"id"`
	TaskId           uuid.UUID        `json:"task_id"`
	ContributorId    uuid.UUID        `json:"contributor_id"`
	Status           string           `json:"status"`
	VideoURL         string           `json:"video_url"`
	PoseDataURL      string           `json:"pose_data_url"`
	FrameCount       int              `json:"frame_count"`
	DurationMs       int64            `json:"duration_ms"`
	Redacted         bool             `json:"redacted"`
	Rating           *int             `json:"rating,omitempty"`
	Feedback         *string          `json:"feedback,omitempty"`
	AiVerification   *VerificationDTO `json:"ai_verification,omitempty"`
	DuplicateWarning bool             `json:"duplicate_warning,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	DecidedAt        *time.Time       `json:"decided_at,omitempty"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

// PublishVerifySubmissionMessage rides the in-process queue from
// submission creation to the verification worker.
type PublishVerifySubmissionMessage struct {
	SubmissionId uuid.UUID `json:"submission_id"`
}

// --- Export DTOs ---

// ExportRequest flags drive which fields appear per item; everything
// defaults off so callers pull only what they need.
type ExportRequest struct {
	TaskId          uuid.UUID `query:"task_id" validate:"required"`
	Status          string    `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	IncludeVideo    bool      `query:"include_video"`
	IncludePose     bool      `query:"include_pose"`
	IncludeMetadata bool      `query:"include_metadata"`
}

type ExportItem struct {
	Id       uuid.UUID       `json:"id"`
	Status   string          `json:"status"`
	VideoURL string          `json:"video_url,omitempty"`
	PoseData []pose.Frame    `json:"pose_data,omitempty"`
	Metadata *ExportMetadata `json:"metadata,omitempty"`
}

type ExportMetadata struct {
	ContributorId uuid.UUID  `json:"contributor_id"`
	FrameCount    int        `json:"frame_count"`
	DurationMs    int64      `json:"duration_ms"`
	Redacted      bool       `json:"redacted"`
	Rating        *int       `json:"rating,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

type ExportResponse struct {
	TaskId uuid.UUID    `json:"task_id"`
	Items  []ExportItem `json:"items"`
	Count  int          `json:"count"`
}
