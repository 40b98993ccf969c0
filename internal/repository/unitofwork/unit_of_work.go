package unitofwork

import (
	"context"

	"posemarket-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	TaskRepository() contract.TaskRepository
	SubmissionRepository() contract.SubmissionRepository
	TransactionRepository() contract.TransactionRepository
}
