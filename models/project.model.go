package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Project statuses
const (
	ProjectDraft     = "draft"
	ProjectPending   = "pending"
	ProjectApproved  = "approved"
	ProjectRejected  = "rejected"
	ProjectFunded    = "funded"
	ProjectCompleted = "completed"
)

// Project is a farmer funding proposal. The primary key is a random UUID: it
// shows up in derived filenames and URLs, so it must not be guessable.
type Project struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	FarmerID uint   `gorm:"index;not null"` // immutable after creation

	Name        string `gorm:"size:100;not null"`
	Title       string `gorm:"size:200;not null"`
	Email       string `gorm:"not null"`
	Brief       string `gorm:"size:500;not null"`
	Description string `gorm:"type:text;not null"`
	Benefits    string `gorm:"type:text"`

	TargetAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Deadline     *time.Time
	ImageURL     string `gorm:"default:''"`

	// OriginalProposal is the uploaded PDF. WatermarkedProposal is derived from
	// it by the watermark pipeline and written only by the project service;
	// empty means the last generation attempt failed.
	OriginalProposal    string `gorm:"not null"`
	WatermarkedProposal string `gorm:"default:''"`

	Status    string `gorm:"size:20;default:'draft'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = ProjectDraft
	}
	return nil
}

// DaysRemaining returns days until the deadline, clamped at zero,
// or -1 when no deadline is set.
func (p *Project) DaysRemaining(now time.Time) int {
	if p.Deadline == nil {
		return -1
	}
	days := int(p.Deadline.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsActive reports whether the project is open for investment.
func (p *Project) IsActive(now time.Time) bool {
	if p.Status != ProjectApproved && p.Status != ProjectFunded {
		return false
	}
	return p.Deadline == nil || p.Deadline.After(now)
}

func IsValidProjectStatus(status string) bool {
	switch status {
	case ProjectDraft, ProjectPending, ProjectApproved, ProjectRejected, ProjectFunded, ProjectCompleted:
		return true
	}
	return false
}
