package services

import (
	"agriconnect/models"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func investorRecord(idNumber string) models.InvestorKYC {
	return models.InvestorKYC{
		FullName:       "Jordan Investor",
		DateOfBirth:    time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Nationality:    "Kenyan",
		PhoneNumber:    "+254 701 234567",
		Email:          "jordan@example.com",
		IDType:         models.IDTypePassport,
		IDNumber:       idNumber,
		IDDocument:     "kyc/documents/doc.pdf",
		ProfilePicture: "kyc/pictures/pic.jpg",
		Address:        "12 Riverside Drive",
		Occupation:     "Analyst",
		IncomeSource:   "salary",
		AnnualIncome:   decimal.NewFromInt(50000),
		Purpose:        "Agricultural investment",
	}
}

func farmerRecord(idNumber string) models.FarmerKYC {
	return models.FarmerKYC{
		FullName:       "Amina Farmer",
		Email:          "amina@example.com",
		PhoneNumber:    "+254 702 765432",
		Role:           models.RoleFarmer,
		DateOfBirth:    time.Date(1988, 9, 3, 0, 0, 0, 0, time.UTC),
		Nationality:    "Kenyan",
		Background:     "Ten years of mixed farming",
		Address:        "Nakuru County",
		IDType:         models.IDTypeNationalID,
		IDNumber:       idNumber,
		IDDocument:     "kyc/documents/doc.pdf",
		ProfilePicture: "kyc/pictures/pic.jpg",
	}
}

func TestSubmitInvestorOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	user := newUser(t, db, models.RoleInvestor)

	saved, err := svc.SubmitInvestor(user, investorRecord("P1234567"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.UserID)
	assert.False(t, saved.IsVerified)
	assert.Nil(t, saved.VerificationDate)

	_, err = svc.SubmitInvestor(user, investorRecord("P7654321"))
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	var count int64
	db.Model(&models.InvestorKYC{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	logs, err := svc.LogsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.KYCActionSubmitted, logs[0].Action)
}

func TestSubmitRoleMismatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)

	farmer := newUser(t, db, models.RoleFarmer)
	_, err := svc.SubmitInvestor(farmer, investorRecord("P0000001"))
	assert.ErrorIs(t, err, ErrRoleMismatch)

	investor := newUser(t, db, models.RoleInvestor)
	_, err = svc.SubmitFarmer(investor, farmerRecord("N0000001"))
	assert.ErrorIs(t, err, ErrRoleMismatch)

	// No records and no audit rows from rejected submissions
	var count int64
	db.Model(&models.KYCVerificationLog{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestSubmitterCannotPreVerify(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	user := newUser(t, db, models.RoleInvestor)

	rec := investorRecord("P2222222")
	now := time.Now()
	rec.IsVerified = true
	rec.VerificationDate = &now
	rec.ChangesAllowed = true

	saved, err := svc.SubmitInvestor(user, rec)
	require.NoError(t, err)
	assert.False(t, saved.IsVerified)
	assert.Nil(t, saved.VerificationDate)
	assert.False(t, saved.ChangesAllowed)
}

func TestAttemptUpdateRejectsChangedFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	user := newUser(t, db, models.RoleInvestor)

	_, err := svc.SubmitInvestor(user, investorRecord("P3333333"))
	require.NoError(t, err)

	before, err := svc.GetInvestorByUser(user.ID)
	require.NoError(t, err)

	updated := investorRecord("P3333333")
	updated.FullName = "Someone Else"
	updated.AnnualIncome = decimal.NewFromInt(99999)

	_, err = svc.AttemptInvestorUpdate(user.ID, updated)
	var immutable *ImmutableError
	require.ErrorAs(t, err, &immutable)
	assert.ElementsMatch(t, []string{"full_name", "annual_income"}, immutable.Fields)

	// Persisted row is untouched by the rejected attempt
	after, err := svc.GetInvestorByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, before.FullName, after.FullName)
	assert.True(t, before.AnnualIncome.Equal(after.AnnualIncome))
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	// And no "updated" audit row was written
	logs, err := svc.LogsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.KYCActionSubmitted, logs[0].Action)
}

func TestAttemptUpdateAllowsAdminFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	user := newUser(t, db, models.RoleFarmer)

	_, err := svc.SubmitFarmer(user, farmerRecord("N3333333"))
	require.NoError(t, err)

	updated := farmerRecord("N3333333")
	now := time.Now()
	updated.IsVerified = true
	updated.VerificationDate = &now
	updated.ChangesAllowed = true

	_, err = svc.AttemptFarmerUpdate(user.ID, updated)
	require.NoError(t, err)

	after, err := svc.GetFarmerByUser(user.ID)
	require.NoError(t, err)
	assert.True(t, after.IsVerified)
	assert.True(t, after.ChangesAllowed)

	logs, err := svc.LogsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.KYCActionUpdated, logs[0].Action)
}

func TestVerifyApprove(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)
	user := newUser(t, db, models.RoleInvestor)

	_, err := svc.SubmitInvestor(user, investorRecord("P4444444"))
	require.NoError(t, err)

	result, err := svc.Verify(admin, user, models.KYCActionApproved, true)
	require.NoError(t, err)
	assert.True(t, result.IsVerified)
	assert.NotNil(t, result.VerificationDate)
	assert.True(t, result.ChangesAllowed)

	rec, err := svc.GetInvestorByUser(user.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsVerified)
	assert.NotNil(t, rec.VerificationDate)
	assert.True(t, rec.ChangesAllowed)
}

func TestVerifyRejectClearsState(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)
	user := newUser(t, db, models.RoleFarmer)

	_, err := svc.SubmitFarmer(user, farmerRecord("N4444444"))
	require.NoError(t, err)

	_, err = svc.Verify(admin, user, models.KYCActionApproved, true)
	require.NoError(t, err)

	result, err := svc.Verify(admin, user, models.KYCActionRejected, false)
	require.NoError(t, err)
	assert.False(t, result.IsVerified)
	assert.Nil(t, result.VerificationDate)
	assert.False(t, result.ChangesAllowed)

	rec, err := svc.GetFarmerByUser(user.ID)
	require.NoError(t, err)
	assert.False(t, rec.IsVerified)
	assert.Nil(t, rec.VerificationDate)
	assert.False(t, rec.ChangesAllowed)
}

func TestVerifyLogOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)
	user := newUser(t, db, models.RoleInvestor)

	_, err := svc.SubmitInvestor(user, investorRecord("P5555555"))
	require.NoError(t, err)
	_, err = svc.Verify(admin, user, models.KYCActionRejected, false)
	require.NoError(t, err)
	_, err = svc.Verify(admin, user, models.KYCActionApproved, false)
	require.NoError(t, err)

	logs, err := svc.LogsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	// Newest first
	assert.Equal(t, models.KYCActionApproved, logs[0].Action)
	assert.Equal(t, models.KYCActionRejected, logs[1].Action)
	assert.Equal(t, models.KYCActionSubmitted, logs[2].Action)

	require.NotNil(t, logs[0].AdminUserID)
	assert.Equal(t, admin.ID, *logs[0].AdminUserID)
	assert.Nil(t, logs[2].AdminUserID)
}

func TestVerifyUnknownAction(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)
	user := newUser(t, db, models.RoleInvestor)

	_, err := svc.Verify(admin, user, "escalated", false)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestVerifyWithoutRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)
	user := newUser(t, db, models.RoleInvestor)

	_, err := svc.Verify(admin, user, models.KYCActionApproved, false)
	assert.ErrorIs(t, err, ErrKYCNotFound)

	// The failed decision left no audit row behind
	var count int64
	db.Model(&models.KYCVerificationLog{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestListPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	admin := newAdmin(t, db)

	first := newUser(t, db, models.RoleInvestor)
	second := newUser(t, db, models.RoleInvestor)
	_, err := svc.SubmitInvestor(first, investorRecord("P6666661"))
	require.NoError(t, err)
	_, err = svc.SubmitInvestor(second, investorRecord("P6666662"))
	require.NoError(t, err)

	_, err = svc.Verify(admin, first, models.KYCActionApproved, false)
	require.NoError(t, err)

	pending, err := svc.ListPendingInvestor()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].UserID)
}

func TestRequestChange(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)
	user := newUser(t, db, models.RoleFarmer)

	_, err := svc.SubmitFarmer(user, farmerRecord("N7777777"))
	require.NoError(t, err)
	require.NoError(t, svc.RequestChange(user.ID))

	logs, err := svc.LogsForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.KYCActionChangeRequested, logs[0].Action)
}

func TestGetMissingRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewKYCService(db)

	_, err := svc.GetInvestorByUser(42)
	assert.ErrorIs(t, err, ErrKYCNotFound)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}
