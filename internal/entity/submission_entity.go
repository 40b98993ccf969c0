package entity

import (
	"time"

	"posemarket-be/pkg/pose"
	"posemarket-be/pkg/verifier"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Submission is the persistent record of one finished capture artifact.
// Status is the only write-guarded field: pending is the sole source of
// a transition and approved/rejected are terminal.
type Submission struct {
	Id            uuid.UUID
	TaskId        uuid.UUID
	ContributorId uuid.UUID
	Status        SubmissionStatus
	VideoRef      string
	PoseDataRef   string
	PoseData      []pose.Frame
	FrameCount    int
	DurationMs    int64
	Redacted      bool
	Rating        *int
	Feedback      *string
	// AiVerification is advisory and written at most once, before any
	// human decision. It never forces a transition.
	AiVerification *verifier.Verification
	// DuplicateWarning is set when the pose signature lands too close
	// to an earlier submission for the same task.
	DuplicateWarning bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DecidedAt        *time.Time
}
