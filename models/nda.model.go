package models

import (
	"time"

	"gorm.io/gorm"
)

// NDAAgreement records an investor's signed non-disclosure consent. One per
// user. Proposal access for investors requires a row to exist here.
type NDAAgreement struct {
	gorm.Model
	UserID     uint   `gorm:"uniqueIndex;not null"`
	FullName   string `gorm:"size:255;not null"`
	Email      string `gorm:"not null"`
	Company    string `gorm:"size:255"`
	DateSigned time.Time
	IPAddress  string `gorm:"size:45"`
	Signature  string `gorm:"default:''"` // stored signature image path
}
