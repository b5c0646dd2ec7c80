package services

import (
	"agriconnect/models"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KYCService owns the KYC record store and its verification state machine.
// Records are write-once; IsVerified, VerificationDate and ChangesAllowed are
// the only mutable fields, and Verify is the only path that sets IsVerified.
type KYCService struct {
	db *gorm.DB
}

func NewKYCService(db *gorm.DB) *KYCService {
	return &KYCService{db: db}
}

// VerificationResult is the state after an admin decision.
type VerificationResult struct {
	UserID           uint       `json:"user_id"`
	Action           string     `json:"action"`
	IsVerified       bool       `json:"is_verified"`
	VerificationDate *time.Time `json:"verification_date"`
	ChangesAllowed   bool       `json:"changes_allowed"`
}

// SubmitInvestor creates the one investor KYC record a user gets. Record
// insert and the "submitted" audit row commit together or not at all.
func (s *KYCService) SubmitInvestor(user *models.User, rec models.InvestorKYC) (*models.InvestorKYC, error) {
	if user.Role != models.RoleInvestor {
		return nil, ErrRoleMismatch
	}

	var existing models.InvestorKYC
	if err := s.db.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec.UserID = user.ID
	rec.IsVerified = false
	rec.VerificationDate = nil
	rec.ChangesAllowed = false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return appendKYCLog(tx, user.ID, models.KYCActionSubmitted, nil)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SubmitFarmer creates the one farmer KYC record a user gets.
func (s *KYCService) SubmitFarmer(user *models.User, rec models.FarmerKYC) (*models.FarmerKYC, error) {
	if !user.IsFarmerLike() {
		return nil, ErrRoleMismatch
	}
	if !models.IsFarmerLikeRole(rec.Role) {
		return nil, ErrRoleMismatch
	}

	var existing models.FarmerKYC
	if err := s.db.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec.UserID = user.ID
	rec.IsVerified = false
	rec.VerificationDate = nil
	rec.ChangesAllowed = false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return appendKYCLog(tx, user.ID, models.KYCActionSubmitted, nil)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetInvestorByUser returns the user's investor KYC record.
func (s *KYCService) GetInvestorByUser(userID uint) (*models.InvestorKYC, error) {
	var rec models.InvestorKYC
	if err := s.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKYCNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetFarmerByUser returns the user's farmer KYC record.
func (s *KYCService) GetFarmerByUser(userID uint) (*models.FarmerKYC, error) {
	var rec models.FarmerKYC
	if err := s.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKYCNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// AttemptInvestorUpdate applies an update to an investor KYC record only if
// every changed field is in the admin-only set. The comparison runs against
// the currently persisted row, re-read under a row lock, so a concurrent
// writer cannot slip a change in between the read and the write.
func (s *KYCService) AttemptInvestorUpdate(userID uint, updated models.InvestorKYC) (*models.InvestorKYC, error) {
	var out models.InvestorKYC
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.InvestorKYC
		if err := lockRow(tx).Where("user_id = ?", userID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrKYCNotFound
			}
			return err
		}

		if fields := investorImmutableDiff(&current, &updated); len(fields) > 0 {
			return &ImmutableError{Fields: fields}
		}

		err := tx.Model(&current).Updates(map[string]interface{}{
			"is_verified":       updated.IsVerified,
			"verification_date": updated.VerificationDate,
			"changes_allowed":   updated.ChangesAllowed,
		}).Error
		if err != nil {
			return err
		}
		if err := appendKYCLog(tx, userID, models.KYCActionUpdated, nil); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AttemptFarmerUpdate is the farmer-variant counterpart of AttemptInvestorUpdate.
func (s *KYCService) AttemptFarmerUpdate(userID uint, updated models.FarmerKYC) (*models.FarmerKYC, error) {
	var out models.FarmerKYC
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.FarmerKYC
		if err := lockRow(tx).Where("user_id = ?", userID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrKYCNotFound
			}
			return err
		}

		if fields := farmerImmutableDiff(&current, &updated); len(fields) > 0 {
			return &ImmutableError{Fields: fields}
		}

		err := tx.Model(&current).Updates(map[string]interface{}{
			"is_verified":       updated.IsVerified,
			"verification_date": updated.VerificationDate,
			"changes_allowed":   updated.ChangesAllowed,
		}).Error
		if err != nil {
			return err
		}
		if err := appendKYCLog(tx, userID, models.KYCActionUpdated, nil); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify applies an admin decision to the user's KYC record. Approving sets
// IsVerified with a timestamp; rejecting or resetting to pending clears both.
// Repeated calls re-transition, they are not errors. The decision and its
// audit row commit in one transaction.
func (s *KYCService) Verify(admin *models.User, user *models.User, action string, allowChanges bool) (*VerificationResult, error) {
	switch action {
	case models.KYCActionApproved, models.KYCActionRejected, models.KYCActionPending:
	default:
		return nil, ErrUnknownAction
	}

	verified := false
	var verifiedAt *time.Time
	changes := false
	if action == models.KYCActionApproved {
		verified = true
		now := time.Now()
		verifiedAt = &now
		changes = allowChanges
	}

	values := map[string]interface{}{
		"is_verified":       verified,
		"verification_date": verifiedAt,
		"changes_allowed":   changes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var result *gorm.DB
		switch {
		case user.Role == models.RoleInvestor:
			var rec models.InvestorKYC
			if err := lockRow(tx).Where("user_id = ?", user.ID).First(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrKYCNotFound
				}
				return err
			}
			result = tx.Model(&rec).Updates(values)
		case user.IsFarmerLike():
			var rec models.FarmerKYC
			if err := lockRow(tx).Where("user_id = ?", user.ID).First(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrKYCNotFound
				}
				return err
			}
			result = tx.Model(&rec).Updates(values)
		default:
			return ErrRoleMismatch
		}
		if result.Error != nil {
			return result.Error
		}

		adminID := admin.ID
		return appendKYCLog(tx, user.ID, action, &adminID)
	})
	if err != nil {
		return nil, err
	}

	return &VerificationResult{
		UserID:           user.ID,
		Action:           action,
		IsVerified:       verified,
		VerificationDate: verifiedAt,
		ChangesAllowed:   changes,
	}, nil
}

// RequestChange records that the user asked an admin to amend their KYC data.
// The record itself stays untouched.
func (s *KYCService) RequestChange(userID uint) error {
	return appendKYCLog(s.db, userID, models.KYCActionChangeRequested, nil)
}

// LogsForUser returns the user's verification history, newest first.
func (s *KYCService) LogsForUser(userID uint) ([]models.KYCVerificationLog, error) {
	var logs []models.KYCVerificationLog
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

// ListPendingInvestor returns unverified investor KYC submissions.
func (s *KYCService) ListPendingInvestor() ([]models.InvestorKYC, error) {
	var recs []models.InvestorKYC
	err := s.db.Where("is_verified = false").Order("created_at ASC").Find(&recs).Error
	return recs, err
}

// ListPendingFarmer returns unverified farmer KYC submissions.
func (s *KYCService) ListPendingFarmer() ([]models.FarmerKYC, error) {
	var recs []models.FarmerKYC
	err := s.db.Where("is_verified = false").Order("created_at ASC").Find(&recs).Error
	return recs, err
}

func appendKYCLog(tx *gorm.DB, userID uint, action string, adminID *uint) error {
	entry := models.KYCVerificationLog{
		UserID:      userID,
		Action:      action,
		AdminUserID: adminID,
	}
	return tx.Create(&entry).Error
}

// lockRow adds FOR UPDATE on dialects that support it. SQLite (used in tests)
// serializes writers on its own.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func investorImmutableDiff(current, updated *models.InvestorKYC) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	add("full_name", current.FullName != updated.FullName)
	add("date_of_birth", !current.DateOfBirth.Equal(updated.DateOfBirth))
	add("nationality", current.Nationality != updated.Nationality)
	add("phone_number", current.PhoneNumber != updated.PhoneNumber)
	add("email", current.Email != updated.Email)
	add("id_type", current.IDType != updated.IDType)
	add("id_number", current.IDNumber != updated.IDNumber)
	add("id_document", current.IDDocument != updated.IDDocument)
	add("profile_picture", current.ProfilePicture != updated.ProfilePicture)
	add("address", current.Address != updated.Address)
	add("occupation", current.Occupation != updated.Occupation)
	add("income_source", current.IncomeSource != updated.IncomeSource)
	add("annual_income", !current.AnnualIncome.Equal(updated.AnnualIncome))
	add("purpose", current.Purpose != updated.Purpose)
	return changed
}

func farmerImmutableDiff(current, updated *models.FarmerKYC) []string {
	var changed []string
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	add("full_name", current.FullName != updated.FullName)
	add("email", current.Email != updated.Email)
	add("phone_number", current.PhoneNumber != updated.PhoneNumber)
	add("role", current.Role != updated.Role)
	add("date_of_birth", !current.DateOfBirth.Equal(updated.DateOfBirth))
	add("nationality", current.Nationality != updated.Nationality)
	add("background", current.Background != updated.Background)
	add("address", current.Address != updated.Address)
	add("id_type", current.IDType != updated.IDType)
	add("id_number", current.IDNumber != updated.IDNumber)
	add("id_document", current.IDDocument != updated.IDDocument)
	add("profile_picture", current.ProfilePicture != updated.ProfilePicture)
	return changed
}
