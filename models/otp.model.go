package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP is a short-lived login code delivered by email or SMS.
type OTP struct {
	gorm.Model
	UserID    uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:5;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

// IsExpired reports whether the code can no longer be redeemed.
func (o *OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// PasswordReset is a pending reset link. ResetID goes into the emailed URL.
type PasswordReset struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	ResetID string `gorm:"type:uuid;uniqueIndex;not null"`
}
