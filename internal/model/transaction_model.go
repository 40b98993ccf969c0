package model

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type         string     `gorm:"type:varchar(20);not null"`
	AmountCents  int64      `gorm:"not null"`
	Description  string     `gorm:"type:text"`
	SubmissionId *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time  `gorm:"default:now();not null"`
}

func (Transaction) TableName() string {
	return "transactions"
}
