package services

import (
	"agriconnect/models"
	"errors"

	"gorm.io/gorm"
)

// PolicyService derives capabilities from role, KYC state and ownership.
// Verification state is read from the store on every check: an admin decision
// can flip at any moment, and a stale grant is a security defect, so nothing
// here is cached.
type PolicyService struct {
	db *gorm.DB
}

func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// CanCreateProject returns nil when the user may create projects, otherwise
// the specific precondition that failed.
func (p *PolicyService) CanCreateProject(user *models.User) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if user.Role == "" {
		return ErrNoProfile
	}
	if !user.IsFarmerLike() {
		return ErrWrongRole
	}

	verified, found, err := p.farmerKYCState(user.ID)
	if err != nil {
		return err
	}
	if !found {
		return ErrKYCMissing
	}
	if !verified {
		return ErrKYCUnverified
	}
	return nil
}

// CanViewProject returns nil when the user may see the project's metadata.
// Admins and the owner always may; investors need a verified investor KYC;
// farmer-like roles may browse approved projects freely.
func (p *PolicyService) CanViewProject(user *models.User, project *models.Project) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if user.IsAdmin {
		return nil
	}
	if project != nil && project.FarmerID == user.ID {
		return nil
	}

	switch {
	case user.Role == models.RoleInvestor:
		verified, found, err := p.investorKYCState(user.ID)
		if err != nil {
			return err
		}
		if !found {
			return ErrKYCMissing
		}
		if !verified {
			return ErrKYCUnverified
		}
		return nil
	case user.IsFarmerLike():
		return nil
	case user.Role == "":
		return ErrNoProfile
	}
	return ErrWrongRole
}

// CanViewProposal gates access to watermarked proposal content. Strictly
// owner, admin, or verified NDA-signed investor; farmer-like non-owners
// additionally need their own verified farmer KYC.
func (p *PolicyService) CanViewProposal(user *models.User, project *models.Project) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if user.IsAdmin {
		return nil
	}
	if project != nil && project.FarmerID == user.ID {
		return nil
	}

	switch {
	case user.Role == models.RoleInvestor:
		verified, found, err := p.investorKYCState(user.ID)
		if err != nil {
			return err
		}
		if !found {
			return ErrKYCMissing
		}
		if !verified {
			return ErrKYCUnverified
		}
		signed, err := p.hasNDA(user.ID)
		if err != nil {
			return err
		}
		if !signed {
			return ErrNDARequired
		}
		return nil
	case user.IsFarmerLike():
		verified, found, err := p.farmerKYCState(user.ID)
		if err != nil {
			return err
		}
		if !found {
			return ErrKYCMissing
		}
		if !verified {
			return ErrKYCUnverified
		}
		return nil
	case user.Role == "":
		return ErrNoProfile
	}
	return ErrWrongRole
}

// IsDenial reports whether err is a policy denial as opposed to a storage
// failure, so handlers can pick 403 over 500.
func IsDenial(err error) bool {
	for _, denial := range []error{
		ErrNotAuthenticated, ErrNoProfile, ErrWrongRole,
		ErrKYCMissing, ErrKYCUnverified, ErrNDARequired, ErrNotOwner,
	} {
		if errors.Is(err, denial) {
			return true
		}
	}
	return false
}

func (p *PolicyService) investorKYCState(userID uint) (verified, found bool, err error) {
	var rec models.InvestorKYC
	err = p.db.Select("is_verified").Where("user_id = ?", userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	return rec.IsVerified, true, nil
}

func (p *PolicyService) farmerKYCState(userID uint) (verified, found bool, err error) {
	var rec models.FarmerKYC
	err = p.db.Select("is_verified").Where("user_id = ?", userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	return rec.IsVerified, true, nil
}

func (p *PolicyService) hasNDA(userID uint) (bool, error) {
	var count int64
	err := p.db.Model(&models.NDAAgreement{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}
