package contract

import (
	"context"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error
	Update(ctx context.Context, sub *entity.Submission) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateStatusIf is the conditional-write primitive the moderation
	// state machine leans on: it flips status only when the stored value
	// still matches fromStatus and reports whether a row changed. Two
	// racing approvals can therefore produce at most one winner.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus, toStatus entity.SubmissionStatus, feedback *string) (bool, error)

	// AttachVerification writes the advisory verdict at most once (only
	// while the row is pending with no verdict yet).
	AttachVerification(ctx context.Context, id uuid.UUID, verificationJSON []byte) (bool, error)

	SetRating(ctx context.Context, id uuid.UUID, rating int) error

	// FindNearestSignature returns the closest earlier submission for
	// the task by pose-signature distance, for duplicate screening.
	FindNearestSignature(ctx context.Context, taskId uuid.UUID, signature []float32) (*entity.Submission, float64, error)
}
