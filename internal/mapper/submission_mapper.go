package mapper

import (
	"encoding/json"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/model"
	"posemarket-be/pkg/pose"
	"posemarket-be/pkg/verifier"

	"github.com/pgvector/pgvector-go"
)

type SubmissionMapper struct{}

func NewSubmissionMapper() *SubmissionMapper {
	return &SubmissionMapper{}
}

func (m *SubmissionMapper) ToEntity(s *model.Submission) *entity.Submission {
	if s == nil {
		return nil
	}
	e := &entity.Submission{
		Id:               s.Id,
		TaskId:           s.TaskId,
		ContributorId:    s.ContributorId,
		Status:           entity.SubmissionStatus(s.Status),
		VideoRef:         s.VideoRef,
		PoseDataRef:      s.PoseDataRef,
		FrameCount:       s.FrameCount,
		DurationMs:       s.DurationMs,
		Redacted:         s.Redacted,
		Rating:           s.Rating,
		Feedback:         s.Feedback,
		DuplicateWarning: s.DuplicateWarning,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		DecidedAt:        s.DecidedAt,
	}
	if len(s.PoseData) > 0 {
		// Stored JSON is trusted: it was marshaled by ToModel.
		_ = json.Unmarshal(s.PoseData, &e.PoseData)
	}
	if len(s.AiVerification) > 0 {
		var v verifier.Verification
		if err := json.Unmarshal(s.AiVerification, &v); err == nil {
			e.AiVerification = &v
		}
	}
	return e
}

func (m *SubmissionMapper) ToModel(e *entity.Submission) *model.Submission {
	if e == nil {
		return nil
	}
	s := &model.Submission{
		Id:               e.Id,
		TaskId:           e.TaskId,
		ContributorId:    e.ContributorId,
		Status:           string(e.Status),
		VideoRef:         e.VideoRef,
		PoseDataRef:      e.PoseDataRef,
		FrameCount:       e.FrameCount,
		DurationMs:       e.DurationMs,
		Redacted:         e.Redacted,
		Rating:           e.Rating,
		Feedback:         e.Feedback,
		DuplicateWarning: e.DuplicateWarning,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		DecidedAt:        e.DecidedAt,
	}
	if e.PoseData != nil {
		if raw, err := json.Marshal(e.PoseData); err == nil {
			s.PoseData = raw
		}
	}
	if e.AiVerification != nil {
		if raw, err := json.Marshal(e.AiVerification); err == nil {
			s.AiVerification = raw
		}
	}
	s.PoseSignature = pgvector.NewVector(pose.Signature(e.PoseData))
	return s
}

func (m *SubmissionMapper) ToEntities(models []*model.Submission) []*entity.Submission {
	out := make([]*entity.Submission, 0, len(models))
	for _, s := range models {
		out = append(out, m.ToEntity(s))
	}
	return out
}
