package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedByContributor scopes submissions to one contributor.
type OwnedByContributor struct {
	ContributorID uuid.UUID
}

func (s OwnedByContributor) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("contributor_id = ?", s.ContributorID)
}

// ForTask scopes submissions to one task.
type ForTask struct {
	TaskID uuid.UUID
}

func (s ForTask) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("task_id = ?", s.TaskID)
}

// WithStatus filters by moderation status.
type WithStatus struct {
	Status string
}

func (s WithStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// OwnedByBusiness scopes tasks to one business account.
type OwnedByBusiness struct {
	BusinessID uuid.UUID
}

func (s OwnedByBusiness) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("business_id = ?", s.BusinessID)
}

// ActiveOnly keeps open tasks.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = true")
}
