package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Submission struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaskId        uuid.UUID `gorm:"type:uuid;not null;index"`
	ContributorId uuid.UUID `gorm:"type:uuid;not null;index"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	VideoRef      string    `gorm:"type:text;not null"`
	PoseDataRef   string    `gorm:"type:text;not null"`
	// PoseData keeps the frame sequence queryable without a blob fetch.
	PoseData   datatypes.JSON `gorm:"type:jsonb"`
	FrameCount int            `gorm:"not null;default:0"`
	DurationMs int64          `gorm:"not null;default:0"`
	Redacted   bool           `gorm:"default:false"`
	Rating     *int
	Feedback   *string         `gorm:"type:text"`
	// AiVerification is nullable JSONB; NULL doubles as the write-once
	// guard for the automated verdict.
	AiVerification   datatypes.JSON  `gorm:"type:jsonb"`
	PoseSignature    pgvector.Vector `gorm:"type:vector(34)"`
	DuplicateWarning bool            `gorm:"default:false"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
	DecidedAt        *time.Time
}

func (Submission) TableName() string {
	return "submissions"
}
