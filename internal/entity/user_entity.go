package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string
type UserStatus string

const (
	UserRoleBusiness    UserRole = "business"
	UserRoleContributor UserRole = "contributor"
	UserRoleAdmin       UserRole = "admin"

	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash *string
	FullName     string
	Role         UserRole
	Status       UserStatus
	// BalanceCents is a materialized cache of the transaction ledger:
	// it must always equal the signed sum of the user's transactions
	// and is only mutated together with a ledger insert.
	BalanceCents int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
