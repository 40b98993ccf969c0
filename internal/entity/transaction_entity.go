package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypeEarning TransactionType = "earning"
	TransactionTypePayout  TransactionType = "payout"
)

// Transaction is one append-only ledger row. Amounts are SIGNED:
// deposits and earnings are positive, payouts (the business side of an
// approval) are negative, so balance == SUM(amount_cents) with no
// per-type sign logic at read time.
type Transaction struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Type         TransactionType
	AmountCents  int64
	Description  string
	SubmissionId *uuid.UUID
	CreatedAt    time.Time
}
