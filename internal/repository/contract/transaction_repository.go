package contract

import (
	"context"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SumAmounts returns the signed sum for one user; used to audit the
	// cached balance against ledger truth.
	SumAmounts(ctx context.Context, userId uuid.UUID) (int64, error)
	// ExistsForSubmission reports whether a ledger row of the given type
	// already references the submission (idempotency backstop).
	ExistsForSubmission(ctx context.Context, submissionId uuid.UUID, txType entity.TransactionType) (bool, error)
}
