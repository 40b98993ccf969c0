// FILE: internal/service/ledger_service.go
package service

import (
	"context"
	"time"

	"posemarket-be/internal/dto"
	"posemarket-be/internal/entity"
	"posemarket-be/internal/pkg/logger"
	"posemarket-be/internal/repository/specification"
	"posemarket-be/internal/repository/unitofwork"
	"posemarket-be/pkg/apperrors"

	"github.com/google/uuid"
)

type ILedgerService interface {
	// Credit appends one signed ledger row and bumps the cached balance
	// inside the caller's open transaction. Both writes commit together
	// or not at all.
	Credit(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, txType entity.TransactionType, amountCents int64, description string, submissionId *uuid.UUID) error

	GetBalance(ctx context.Context, userId uuid.UUID) (*dto.BalanceResponse, error)
	ListTransactions(ctx context.Context, userId uuid.UUID) (*dto.TransactionListResponse, error)

	// AuditBalance recomputes the signed sum and reports whether the
	// cached balance matches ledger truth.
	AuditBalance(ctx context.Context, userId uuid.UUID) (bool, error)
}

type ledgerService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewLedgerService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ILedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (s *ledgerService) Credit(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, txType entity.TransactionType, amountCents int64, description string, submissionId *uuid.UUID) error {
	tx := &entity.Transaction{
		Id:           uuid.New(),
		UserId:       userId,
		Type:         txType,
		AmountCents:  amountCents,
		Description:  description,
		SubmissionId: submissionId,
		CreatedAt:    time.Now(),
	}

	if err := uow.TransactionRepository().Create(ctx, tx); err != nil {
		return err
	}
	return uow.UserRepository().AdjustBalance(ctx, userId, amountCents)
}

func (s *ledgerService) GetBalance(ctx context.Context, userId uuid.UUID) (*dto.BalanceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}

	return &dto.BalanceResponse{
		UserId:       user.Id,
		BalanceCents: user.BalanceCents,
	}, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, userId uuid.UUID) (*dto.TransactionListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.TransactionRepository()

	owned := specification.FilterBy{Field: "user_id", Value: userId}

	txs, err := repo.FindAll(ctx, owned, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		// History must stay readable even when ordering fails; retry
		// without the sort and let the client cope.
		s.log.Warn("ledger", "ordered history query failed, falling back to unordered", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		txs, err = repo.FindAll(ctx, owned)
		if err != nil {
			return nil, err
		}
	}

	res := &dto.TransactionListResponse{
		Transactions: make([]dto.TransactionDTO, 0, len(txs)),
		Total:        int64(len(txs)),
	}
	for _, t := range txs {
		res.Transactions = append(res.Transactions, dto.TransactionDTO{
			Id:           t.Id,
			Type:         string(t.Type),
			AmountCents:  t.AmountCents,
			Description:  t.Description,
			SubmissionId: t.SubmissionId,
			CreatedAt:    t.CreatedAt,
		})
	}
	return res, nil
}

func (s *ledgerService) AuditBalance(ctx context.Context, userId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, apperrors.ErrNotFound
	}

	sum, err := uow.TransactionRepository().SumAmounts(ctx, userId)
	if err != nil {
		return false, err
	}

	if sum != user.BalanceCents {
		s.log.Error("ledger", "cached balance diverged from ledger sum", map[string]interface{}{
			"user_id": userId.String(),
			"cached":  user.BalanceCents,
			"ledger":  sum,
		})
		return false, nil
	}
	return true, nil
}
