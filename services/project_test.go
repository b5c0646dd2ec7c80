package services

import (
	"agriconnect/models"
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProjectService(t *testing.T, db *gorm.DB) *ProjectService {
	t.Helper()
	wm := NewWatermarker(t.TempDir(), "AGRICONNECT")
	return NewProjectService(db, wm)
}

func sampleInput(amount string, deadline *time.Time) CreateProjectInput {
	return CreateProjectInput{
		Name:         "Maize Expansion",
		Title:        "Maize Expansion 2026",
		Email:        "farm@example.com",
		Brief:        "Expand maize acreage",
		Description:  "Detailed plan for expanding maize production.",
		Benefits:     "Higher yield",
		TargetAmount: decimal.RequireFromString(amount),
		Deadline:     deadline,
	}
}

func TestCreateProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	src := buildPDF(t, t.TempDir(), 3)
	content, err := os.ReadFile(src)
	require.NoError(t, err)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader(content))
	require.NoError(t, err)

	assert.NotEmpty(t, project.ID)
	assert.Equal(t, owner.ID, project.FarmerID)
	assert.Equal(t, models.ProjectDraft, project.Status)

	// Original stored verbatim
	stored, err := os.ReadFile(project.OriginalProposal)
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	// Derived copy exists, differs from the original, same page count
	require.NotEmpty(t, project.WatermarkedProposal)
	derived, err := os.ReadFile(project.WatermarkedProposal)
	require.NoError(t, err)
	assert.NotEqual(t, content, derived)

	origPages, err := PageCount(project.OriginalProposal)
	require.NoError(t, err)
	derivedPages, err := PageCount(project.WatermarkedProposal)
	require.NoError(t, err)
	assert.Equal(t, 3, origPages)
	assert.Equal(t, origPages, derivedPages)

	// The persisted row carries the derived path too
	reloaded, err := svc.GetByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.WatermarkedProposal, reloaded.WatermarkedProposal)
}

// A proposal that cannot be stamped must not block the upload. The project
// commits with an empty derived reference.
func TestCreateProjectSurvivesWatermarkFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader([]byte("not a pdf at all")))
	require.NoError(t, err)
	assert.Empty(t, project.WatermarkedProposal)

	reloaded, err := svc.GetByID(project.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.WatermarkedProposal)

	// No partial derivative left on disk
	_, err = os.Stat(svc.wm.WatermarkedPath(project.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestReplaceOriginalIdenticalIsNoop(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	content, err := os.ReadFile(buildPDF(t, t.TempDir(), 2))
	require.NoError(t, err)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader(content))
	require.NoError(t, err)

	derivedBefore, err := os.ReadFile(project.WatermarkedProposal)
	require.NoError(t, err)

	_, changed, err := svc.ReplaceOriginal(project.ID, owner, bytes.NewReader(content))
	require.NoError(t, err)
	assert.False(t, changed)

	derivedAfter, err := os.ReadFile(project.WatermarkedProposal)
	require.NoError(t, err)
	assert.Equal(t, derivedBefore, derivedAfter)
}

func TestReplaceOriginalRegenerates(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	dir := t.TempDir()
	first, err := os.ReadFile(buildPDF(t, dir, 2))
	require.NoError(t, err)
	second, err := os.ReadFile(buildPDF(t, dir, 4))
	require.NoError(t, err)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader(first))
	require.NoError(t, err)

	updated, changed, err := svc.ReplaceOriginal(project.ID, owner, bytes.NewReader(second))
	require.NoError(t, err)
	assert.True(t, changed)

	// Derived artifact tracks the new original's page count
	pages, err := PageCount(updated.WatermarkedProposal)
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
}

// When the replacement cannot be stamped, the stale derivative must disappear
// rather than keep serving content that no longer matches the original.
func TestReplaceOriginalClearsStaleDerivative(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	content, err := os.ReadFile(buildPDF(t, t.TempDir(), 2))
	require.NoError(t, err)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader(content))
	require.NoError(t, err)
	require.NotEmpty(t, project.WatermarkedProposal)

	updated, changed, err := svc.ReplaceOriginal(project.ID, owner, bytes.NewReader([]byte("garbage")))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, updated.WatermarkedProposal)

	_, err = os.Stat(svc.wm.WatermarkedPath(project.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestReplaceOriginalOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)
	stranger := newUser(t, db, models.RoleFarmer)
	admin := newAdmin(t, db)

	content, err := os.ReadFile(buildPDF(t, t.TempDir(), 1))
	require.NoError(t, err)

	project, err := svc.Create(owner, sampleInput("5000", nil), bytes.NewReader(content))
	require.NoError(t, err)

	_, _, err = svc.ReplaceOriginal(project.ID, stranger, bytes.NewReader(content))
	assert.ErrorIs(t, err, ErrNotOwner)

	// Admins may step in
	_, changed, err := svc.ReplaceOriginal(project.ID, admin, bytes.NewReader(content))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSetStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	project := seedProject(t, db, owner, models.ProjectDraft, nil, "5000")

	for _, status := range []string{
		models.ProjectPending, models.ProjectApproved,
		models.ProjectFunded, models.ProjectCompleted,
	} {
		updated, err := svc.SetStatus(project.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	// completed is terminal
	_, err := svc.SetStatus(project.ID, models.ProjectPending)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, models.ProjectCompleted, transition.From)
}

func TestSetStatusRejectsSkips(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	project := seedProject(t, db, owner, models.ProjectDraft, nil, "5000")

	_, err := svc.SetStatus(project.ID, models.ProjectFunded)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)

	// Unknown target is rejected before the row is even read
	_, err = svc.SetStatus(project.ID, "archived")
	require.ErrorAs(t, err, &transition)

	_, err = svc.SetStatus("no-such-id", models.ProjectPending)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestSumByOwnerExcludesRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)
	other := newUser(t, db, models.RoleFarmer)

	seedProject(t, db, owner, models.ProjectApproved, nil, "3000")
	seedProject(t, db, owner, models.ProjectPending, nil, "2000")
	seedProject(t, db, owner, models.ProjectRejected, nil, "9000")
	seedProject(t, db, other, models.ProjectApproved, nil, "7000")

	total, count, err := svc.SumByOwner(owner.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(total), "got %s", total)
	assert.EqualValues(t, 2, count)
}

func TestSearchProjects(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)

	maize := seedProject(t, db, owner, models.ProjectApproved, nil, "3000")
	require.NoError(t, db.Model(maize).Updates(map[string]interface{}{
		"name":        "Maize Irrigation",
		"title":       "Drip lines for the maize block",
		"description": "Install drip irrigation on two hectares.",
	}).Error)
	poultry := seedProject(t, db, owner, models.ProjectApproved, nil, "8000")
	require.NoError(t, db.Model(poultry).Updates(map[string]interface{}{
		"name":        "Poultry House",
		"title":       "Broiler house construction",
		"description": "Build a five hundred bird broiler house.",
	}).Error)
	seedProject(t, db, owner, models.ProjectPending, nil, "100")

	found, err := svc.Search(SearchFilters{Query: "maize"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, maize.ID, found[0].ID)

	max := decimal.NewFromInt(5000)
	found, err = svc.Search(SearchFilters{MaxAmount: &max})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, maize.ID, found[0].ID)

	found, err = svc.Search(SearchFilters{FarmerID: owner.ID})
	require.NoError(t, err)
	assert.Len(t, found, 2) // pending project stays out
}

func TestRecommended(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(t, db)
	owner := newUser(t, db, models.RoleFarmer)
	now := time.Now()

	soon := now.AddDate(0, 0, 3)
	far := now.AddDate(0, 0, 30)

	closing := seedProject(t, db, owner, models.ProjectApproved, &soon, "20000")
	affordable := seedProject(t, db, owner, models.ProjectApproved, &far, "5000")
	seedProject(t, db, owner, models.ProjectPending, &soon, "100")

	kyc := investorRecord("P9999999")
	kyc.AnnualIncome = decimal.NewFromInt(10000)

	dueSoon, withinBudget, err := svc.Recommended(&kyc, now)
	require.NoError(t, err)

	require.Len(t, dueSoon, 1)
	assert.Equal(t, closing.ID, dueSoon[0].ID)

	require.Len(t, withinBudget, 1)
	assert.Equal(t, affordable.ID, withinBudget[0].ID)
}
