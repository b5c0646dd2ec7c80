package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// KYC verification log actions
const (
	KYCActionSubmitted       = "submitted"
	KYCActionApproved        = "approved"
	KYCActionRejected        = "rejected"
	KYCActionPending         = "pending"
	KYCActionUpdated         = "updated"
	KYCActionChangeRequested = "change_requested"
)

// ID document types accepted on KYC submissions
const (
	IDTypePassport      = "passport"
	IDTypeNationalID    = "national_id"
	IDTypeDriverLicense = "driver_license"
	IDTypeVoterID       = "voter_id"
)

// InvestorKYC is identity verification data for investors. Every field outside
// IsVerified, VerificationDate and ChangesAllowed is write-once: the record is
// created by the user and may never be edited again except by an admin decision.
type InvestorKYC struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null"`

	FullName    string    `gorm:"not null"`
	DateOfBirth time.Time `gorm:"not null"`
	Nationality string    `gorm:"not null"`
	PhoneNumber string    `gorm:"not null"`
	Email       string    `gorm:"not null"`

	IDType         string `gorm:"not null"`
	IDNumber       string `gorm:"uniqueIndex;not null"`
	IDDocument     string `gorm:"not null"` // stored file path
	ProfilePicture string `gorm:"not null"` // stored file path

	Address      string          `gorm:"not null"`
	Occupation   string          `gorm:"not null"`
	IncomeSource string          `gorm:"not null"`
	AnnualIncome decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Purpose      string          `gorm:"not null"`

	// Admin-only fields. services.KYCService.Verify is the single writer.
	IsVerified       bool       `gorm:"default:false"`
	VerificationDate *time.Time `json:"verification_date"`
	ChangesAllowed   bool       `gorm:"default:false"`
}

// FarmerKYC is identity verification data for farmers, students and
// entrepreneurs. Same write-once contract as InvestorKYC.
type FarmerKYC struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null"`

	FullName    string    `gorm:"not null"`
	Email       string    `gorm:"not null"`
	PhoneNumber string    `gorm:"not null"`
	Role        string    `gorm:"not null"` // Farmer, Student or Entrepreneur
	DateOfBirth time.Time `gorm:"not null"`
	Nationality string    `gorm:"not null"`

	Background string `gorm:"not null"`
	Address    string `gorm:"not null"`

	IDType         string `gorm:"not null"`
	IDNumber       string `gorm:"uniqueIndex;not null"`
	IDDocument     string `gorm:"not null"`
	ProfilePicture string `gorm:"not null"`

	IsVerified       bool       `gorm:"default:false"`
	VerificationDate *time.Time `json:"verification_date"`
	ChangesAllowed   bool       `gorm:"default:false"`
}

// KYCVerificationLog is an append-only audit trail. Rows are created on every
// submission and every admin verification action, and are never changed.
type KYCVerificationLog struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"index;not null"`
	Action      string    `gorm:"not null"`
	AdminUserID *uint     `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
