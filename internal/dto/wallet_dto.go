package dto

import (
	"time"

	"github.com/google/uuid"
)

type BalanceResponse struct {
	UserId       uuid.UUID `json:"user_id"`
	BalanceCents int64     `json:"balance_cents"`
}

type TransactionDTO struct {
	Id           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	AmountCents  int64      `json:"amount_cents"`
	Description  string     `json:"description"`
	SubmissionId *uuid.UUID `json:"submission_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Total        int64            `json:"total"`
}

// --- Deposit DTOs ---

type CreateDepositRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type CreateDepositResponse struct {
	OrderId     string `json:"order_id"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
}

// MidtransWebhookRequest mirrors the notification payload; SignatureKey
// is SHA512(order_id + status_code + gross_amount + server_key).
type MidtransWebhookRequest struct {
	OrderId           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}
