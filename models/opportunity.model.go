package models

import (
	"time"

	"gorm.io/gorm"
)

// Opportunity types
const (
	OpportunityGrant       = "grant"
	OpportunityHackathon   = "hackathon"
	OpportunityMentorship  = "funding_mentorship"
	OpportunityCompetition = "competition"
	OpportunityOther       = "other"
)

// Opportunity is a funding listing board entry. View and applicant counters are
// best-effort increments.
type Opportunity struct {
	gorm.Model
	Title           string `gorm:"size:255;not null"`
	Organization    string `gorm:"size:255;not null"`
	Location        string `gorm:"size:255"`
	Theme           string `gorm:"size:255"`
	Type            string `gorm:"size:50;not null"`
	Tags            string `gorm:"type:text"` // comma separated
	Description     string `gorm:"type:text"`
	FullDescription string `gorm:"type:text"`
	Amount          string `gorm:"size:100"`
	Deadline        time.Time
	ApplicationLink string `gorm:"size:500"`
	Posted          time.Time
	Views           uint `gorm:"default:0"`
	Applicants      uint `gorm:"default:0"`
	CreatedByID     uint `gorm:"index;not null"`
}

// IsActive is computed against the deadline at read time; listings stay
// visible through one grace day past their deadline.
func (o *Opportunity) IsActive(now time.Time) bool {
	return now.Before(o.Deadline.AddDate(0, 0, 1))
}

func IsValidOpportunityType(t string) bool {
	switch t {
	case OpportunityGrant, OpportunityHackathon, OpportunityMentorship, OpportunityCompetition, OpportunityOther:
		return true
	}
	return false
}
