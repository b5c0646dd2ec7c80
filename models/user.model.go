package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can register with. There is exactly one role per user,
// stored on the user row itself; capability checks dispatch on it.
const (
	RoleFarmer       = "Farmer"
	RoleInvestor     = "Investor"
	RoleStudent      = "Student"
	RoleEntrepreneur = "Entrepreneur"
)

// Investor types
const (
	InvestorIndividual   = "Individual"
	InvestorOrganization = "Organization"
)

type User struct {
	gorm.Model
	FirstName       string     `gorm:"default:''"`
	LastName        string     `gorm:"default:''"`
	Email           string     `gorm:"unique;not null"`
	Password        string     `gorm:"not null" json:"-"`
	Phone           string     `gorm:"default:''"`
	Role            string     `gorm:"not null"`
	Organization    string     `gorm:"default:''"`
	InvestorType    string     `gorm:"default:''"`
	IsAdmin         bool       `gorm:"default:false"`
	IsEmailVerified bool       `gorm:"default:false"`
	LastLogin       *time.Time `json:"last_login"`
	IsDeleted       bool       `gorm:"default:false"`
}

// FullName joins first and last name the way it is shown on KYC forms.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsFarmerLike reports whether the role may submit farmer KYC and create projects.
func (u *User) IsFarmerLike() bool {
	return IsFarmerLikeRole(u.Role)
}

func IsFarmerLikeRole(role string) bool {
	switch role {
	case RoleFarmer, RoleStudent, RoleEntrepreneur:
		return true
	}
	return false
}

func IsValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleInvestor, RoleStudent, RoleEntrepreneur:
		return true
	}
	return false
}
