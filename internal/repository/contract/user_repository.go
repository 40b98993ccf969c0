package contract

import (
	"context"

	"posemarket-be/internal/entity"
	"posemarket-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// AdjustBalance increments the cached balance atomically. Must run
	// inside the same transaction as the ledger insert it mirrors.
	AdjustBalance(ctx context.Context, userId uuid.UUID, deltaCents int64) error
}
