package mapper

import (
	"posemarket-be/internal/entity"
	"posemarket-be/internal/model"
)

type TransactionMapper struct{}

func NewTransactionMapper() *TransactionMapper {
	return &TransactionMapper{}
}

func (m *TransactionMapper) ToEntity(t *model.Transaction) *entity.Transaction {
	if t == nil {
		return nil
	}
	return &entity.Transaction{
		Id:           t.Id,
		UserId:       t.UserId,
		Type:         entity.TransactionType(t.Type),
		AmountCents:  t.AmountCents,
		Description:  t.Description,
		SubmissionId: t.SubmissionId,
		CreatedAt:    t.CreatedAt,
	}
}

func (m *TransactionMapper) ToModel(t *entity.Transaction) *model.Transaction {
	if t == nil {
		return nil
	}
	return &model.Transaction{
		Id:           t.Id,
		UserId:       t.UserId,
		Type:         string(t.Type),
		AmountCents:  t.AmountCents,
		Description:  t.Description,
		SubmissionId: t.SubmissionId,
		CreatedAt:    t.CreatedAt,
	}
}

func (m *TransactionMapper) ToEntities(models []*model.Transaction) []*entity.Transaction {
	out := make([]*entity.Transaction, 0, len(models))
	for _, t := range models {
		out = append(out, m.ToEntity(t))
	}
	return out
}
