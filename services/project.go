package services

import (
	"agriconnect/models"
	"bytes"
	"crypto/sha256"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectService owns the project lifecycle: creation with best-effort
// watermarking, original-file replacement with derivative regeneration, the
// status transition table, and the read paths.
type ProjectService struct {
	db *gorm.DB
	wm *Watermarker
}

func NewProjectService(db *gorm.DB, wm *Watermarker) *ProjectService {
	return &ProjectService{db: db, wm: wm}
}

// CreateProjectInput carries the validated metadata for a new project.
type CreateProjectInput struct {
	Name         string
	Title        string
	Email        string
	Brief        string
	Description  string
	Benefits     string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
	ImageURL     string
}

// projectTransitions is the formal status table. rejected and completed are
// terminal.
var projectTransitions = map[string]map[string]bool{
	models.ProjectDraft:    {models.ProjectPending: true},
	models.ProjectPending:  {models.ProjectApproved: true, models.ProjectRejected: true},
	models.ProjectApproved: {models.ProjectFunded: true, models.ProjectRejected: true},
	models.ProjectFunded:   {models.ProjectCompleted: true},
}

// Create persists a draft project and its uploaded proposal, then stamps the
// investor-facing copy. Watermarking runs inside the same transaction boundary
// but is best-effort: if it fails the project still commits with an empty
// derived reference and the failure goes to the operational log only, because
// the upload succeeding is the user-visible contract.
func (s *ProjectService) Create(owner *models.User, in CreateProjectInput, proposal io.Reader) (*models.Project, error) {
	project := models.Project{
		ID:           uuid.NewString(),
		FarmerID:     owner.ID,
		Name:         in.Name,
		Title:        in.Title,
		Email:        in.Email,
		Brief:        in.Brief,
		Description:  in.Description,
		Benefits:     in.Benefits,
		TargetAmount: in.TargetAmount,
		Deadline:     in.Deadline,
		ImageURL:     in.ImageURL,
		Status:       models.ProjectDraft,
	}

	origPath := s.wm.OriginalPath(project.ID)
	if err := writeFile(origPath, proposal); err != nil {
		return nil, err
	}
	project.OriginalProposal = origPath

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		derived, werr := s.wm.Watermark(origPath, "", project.ID)
		if werr != nil {
			log.Printf("Failed to watermark proposal for project %s: %v", project.ID, werr)
			return nil
		}

		project.WatermarkedProposal = derived
		return tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("watermarked_proposal", derived).Error
	})
	if err != nil {
		os.Remove(origPath)
		return nil, err
	}

	return &project, nil
}

// ReplaceOriginal swaps in a new proposal file and regenerates the derivative.
// When the upload is byte-identical to the stored original nothing happens:
// unrelated edits must not retrigger the pipeline. The returned bool reports
// whether the file actually changed.
func (s *ProjectService) ReplaceOriginal(projectID string, actor *models.User, proposal io.Reader) (*models.Project, bool, error) {
	project, err := s.GetByID(projectID)
	if err != nil {
		return nil, false, err
	}
	if project.FarmerID != actor.ID && !actor.IsAdmin {
		return nil, false, ErrNotOwner
	}

	newContent, err := io.ReadAll(proposal)
	if err != nil {
		return nil, false, err
	}

	if current, err := os.ReadFile(project.OriginalProposal); err == nil {
		if sha256.Sum256(current) == sha256.Sum256(newContent) {
			return project, false, nil
		}
	}

	if err := writeFile(project.OriginalProposal, bytes.NewReader(newContent)); err != nil {
		return nil, false, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		derived, werr := s.wm.Watermark(project.OriginalProposal, "", project.ID)
		if werr != nil {
			// The stale derivative no longer matches the original; it must
			// never be served, so the reference is cleared.
			log.Printf("Failed to rewatermark proposal for project %s: %v", project.ID, werr)
			derived = ""
			os.Remove(s.wm.WatermarkedPath(project.ID))
		}
		project.WatermarkedProposal = derived
		return tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("watermarked_proposal", derived).Error
	})
	if err != nil {
		return nil, false, err
	}

	return project, true, nil
}

// SetStatus moves a project through the transition table.
func (s *ProjectService) SetStatus(projectID, newStatus string) (*models.Project, error) {
	if !models.IsValidProjectStatus(newStatus) {
		return nil, &InvalidTransitionError{From: "", To: newStatus}
	}

	var project models.Project
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx).Where("id = ?", projectID).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		if !projectTransitions[project.Status][newStatus] {
			return &InvalidTransitionError{From: project.Status, To: newStatus}
		}

		project.Status = newStatus
		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("status", newStatus).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByID returns a project by its uuid.
func (s *ProjectService) GetByID(id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// ListApproved returns approved projects, newest first.
func (s *ProjectService) ListApproved() ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Where("status = ?", models.ProjectApproved).
		Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// ListByOwner returns all of a farmer's projects, newest first.
func (s *ProjectService) ListByOwner(ownerID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Where("farmer_id = ?", ownerID).
		Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// SearchFilters narrows the approved-project listing.
type SearchFilters struct {
	FarmerID  uint
	Query     string // matches name, title or description
	MaxAmount *decimal.Decimal
}

// Search returns approved projects matching the filters, newest first.
func (s *ProjectService) Search(f SearchFilters) ([]models.Project, error) {
	q := s.db.Where("status = ?", models.ProjectApproved)
	if f.FarmerID != 0 {
		q = q.Where("farmer_id = ?", f.FarmerID)
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	if f.MaxAmount != nil {
		q = q.Where("target_amount <= ?", f.MaxAmount)
	}

	var projects []models.Project
	err := q.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// SumByOwner aggregates a farmer's target amounts across non-rejected
// projects.
func (s *ProjectService) SumByOwner(ownerID uint) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.Decimal
		Count int64
	}
	err := s.db.Model(&models.Project{}).
		Select("COALESCE(SUM(target_amount), 0) AS total, COUNT(*) AS count").
		Where("farmer_id = ? AND status <> ?", ownerID, models.ProjectRejected).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.Count, nil
}

// Recommended returns two approved-project shortlists for a verified
// investor: deadlines within the next five days, and targets within the
// investor's declared annual income.
func (s *ProjectService) Recommended(investorKYC *models.InvestorKYC, now time.Time) (dueSoon, withinBudget []models.Project, err error) {
	cutoff := now.AddDate(0, 0, 5)

	err = s.db.Where("status = ? AND deadline IS NOT NULL AND deadline BETWEEN ? AND ?",
		models.ProjectApproved, now, cutoff).
		Order("deadline ASC").Find(&dueSoon).Error
	if err != nil {
		return nil, nil, err
	}

	err = s.db.Where("status = ? AND target_amount <= ?",
		models.ProjectApproved, investorKYC.AnnualIncome).
		Order("deadline ASC").Find(&withinBudget).Error
	if err != nil {
		return nil, nil, err
	}
	return dueSoon, withinBudget, nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return err
	}
	return nil
}
