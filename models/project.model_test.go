package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProjectDaysRemaining(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	p := Project{}
	assert.Equal(t, -1, p.DaysRemaining(now))

	future := now.AddDate(0, 0, 10)
	p.Deadline = &future
	assert.Equal(t, 10, p.DaysRemaining(now))

	past := now.AddDate(0, 0, -3)
	p.Deadline = &past
	assert.Equal(t, 0, p.DaysRemaining(now))
}

func TestProjectIsActive(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 5)
	past := now.AddDate(0, 0, -5)

	assert.False(t, (&Project{Status: ProjectDraft, Deadline: &future}).IsActive(now))
	assert.False(t, (&Project{Status: ProjectPending, Deadline: &future}).IsActive(now))
	assert.True(t, (&Project{Status: ProjectApproved, Deadline: &future}).IsActive(now))
	assert.True(t, (&Project{Status: ProjectFunded, Deadline: &future}).IsActive(now))
	assert.False(t, (&Project{Status: ProjectApproved, Deadline: &past}).IsActive(now))

	// No deadline means open-ended
	assert.True(t, (&Project{Status: ProjectApproved}).IsActive(now))
}

func TestOpportunityIsActive(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// Grace day past the deadline
	o := Opportunity{Deadline: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)}
	assert.True(t, o.IsActive(now))

	o.Deadline = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assert.False(t, o.IsActive(now))

	o.Deadline = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, o.IsActive(now))
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleFarmer, RoleInvestor, RoleStudent, RoleEntrepreneur} {
		assert.True(t, IsValidRole(role), role)
	}
	assert.False(t, IsValidRole("Admin"))
	assert.False(t, IsValidRole("farmer")) // case sensitive
	assert.False(t, IsValidRole(""))
}

func TestIsFarmerLikeRole(t *testing.T) {
	assert.True(t, IsFarmerLikeRole(RoleFarmer))
	assert.True(t, IsFarmerLikeRole(RoleStudent))
	assert.True(t, IsFarmerLikeRole(RoleEntrepreneur))
	assert.False(t, IsFarmerLikeRole(RoleInvestor))
}
