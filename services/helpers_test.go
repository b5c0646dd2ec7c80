package services

import (
	"agriconnect/database"
	"agriconnect/models"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database and runs migrations.
// The database name is derived from the test name so parallel tests never
// share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second pooled connection would see an empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database.RunMigrations(db)
	return db
}

// newUser persists a user with the given role.
func newUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := models.User{
		FirstName: "Test",
		LastName:  role,
		Email:     fmt.Sprintf("%s-%d@example.com", role, userSeq(db)),
		Password:  "hashed",
		Role:      role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func newAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	admin := models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     fmt.Sprintf("admin-%d@example.com", userSeq(db)),
		Password:  "hashed",
		Role:      models.RoleInvestor,
		IsAdmin:   true,
	}
	require.NoError(t, db.Create(&admin).Error)
	return &admin
}

func userSeq(db *gorm.DB) int64 {
	var n int64
	db.Model(&models.User{}).Count(&n)
	return n
}

// seedProject inserts a project row directly, bypassing the upload pipeline.
func seedProject(t *testing.T, db *gorm.DB, owner *models.User, status string, deadline *time.Time, amount string) *models.Project {
	t.Helper()

	project := models.Project{
		FarmerID:         owner.ID,
		Name:             "Maize Expansion",
		Title:            "Maize Expansion " + status,
		Email:            owner.Email,
		Brief:            "Expand maize acreage",
		Description:      "Detailed plan for expanding maize production.",
		TargetAmount:     decimal.RequireFromString(amount),
		Deadline:         deadline,
		OriginalProposal: "proposals/original/seed.pdf",
		Status:           status,
	}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

// buildPDF writes a minimal but valid PDF with the given page count and
// returns its path. Object offsets in the xref table are computed as the file
// is assembled.
func buildPDF(t *testing.T, dir string, pages int) string {
	t.Helper()

	var buf strings.Builder
	offsets := make([]int, 0, pages+3)

	write := func(s string) {
		buf.WriteString(s)
	}
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		write(body)
	}

	write("%PDF-1.4\n")

	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pages)
	for i := 0; i < pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	object(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		object(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", i+3))
	}

	xrefAt := buf.Len()
	write(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefAt))

	path := filepath.Join(dir, fmt.Sprintf("fixture_%d_pages.pdf", pages))
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))
	return path
}
