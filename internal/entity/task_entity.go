package entity

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	Id           uuid.UUID
	BusinessId   uuid.UUID
	Title        string
	Instructions string
	// PriceCents is paid per approved submission. Zero is valid: the
	// ledger still records the earning/payout pair for the audit trail.
	PriceCents int64
	WebhookURL *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
