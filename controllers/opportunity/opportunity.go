package opportunityController

import (
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	opportunityValidator "agriconnect/validators/opportunity"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// opportunityView is the list/detail shape; tags go out as a slice and the
// active flag is computed at read time.
type opportunityView struct {
	models.Opportunity
	TagList  []string `json:"tags"`
	IsActive bool     `json:"is_active"`
}

func toView(o models.Opportunity, now time.Time) opportunityView {
	var tags []string
	if o.Tags != "" {
		tags = strings.Split(o.Tags, ",")
	}
	return opportunityView{Opportunity: o, TagList: tags, IsActive: o.IsActive(now)}
}

// ListOpportunities returns listings with optional filters.
func ListOpportunities(c *fiber.Ctx) error {
	db := database.Database.Db
	now := time.Now()

	query := db.Model(&models.Opportunity{}).Order("posted DESC")

	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if loc := c.Query("location"); loc != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(loc)+"%")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(organization) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)
	}

	var rows []models.Opportunity
	if err := query.Find(&rows).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch opportunities!", nil)
	}

	activeOnly := c.Query("active") == "true"
	views := make([]opportunityView, 0, len(rows))
	for _, row := range rows {
		v := toView(row, now)
		if activeOnly && !v.IsActive {
			continue
		}
		views = append(views, v)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Opportunities fetched successfully.", views)
}

// OpportunityDetail returns one listing and bumps its view counter.
func OpportunityDetail(c *fiber.Ctx) error {
	db := database.Database.Db

	var opp models.Opportunity
	if err := db.Where("id = ?", c.Params("id")).First(&opp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Opportunity not found!", nil)
	}

	// Best effort, a lost increment is fine
	if err := db.Model(&opp).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		log.Printf("Failed to bump views for opportunity %d: %v", opp.ID, err)
	}
	opp.Views++

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Opportunity fetched successfully.", toView(opp, time.Now()))
}

// CreateOpportunity adds a listing, admin only.
func CreateOpportunity(c *fiber.Ctx) error {
	admin, ok := c.Locals("currentUser").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("opportunityRequest").(*opportunityValidator.OpportunityRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	deadline, _ := c.Locals("deadline").(time.Time)

	opp := models.Opportunity{
		Title:           reqData.Title,
		Organization:    reqData.Organization,
		Location:        reqData.Location,
		Theme:           reqData.Theme,
		Type:            reqData.Type,
		Tags:            strings.Join(reqData.Tags, ","),
		Description:     reqData.Description,
		FullDescription: reqData.FullDescription,
		Amount:          reqData.Amount,
		Deadline:        deadline,
		ApplicationLink: reqData.ApplicationLink,
		Posted:          time.Now(),
		CreatedByID:     admin.ID,
	}

	if err := database.Database.Db.Create(&opp).Error; err != nil {
		log.Printf("Error creating opportunity: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create opportunity!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Opportunity created successfully.", toView(opp, time.Now()))
}

// UpdateOpportunity edits a listing, admin only.
func UpdateOpportunity(c *fiber.Ctx) error {
	reqData, ok := c.Locals("opportunityRequest").(*opportunityValidator.OpportunityRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	deadline, _ := c.Locals("deadline").(time.Time)

	db := database.Database.Db

	var opp models.Opportunity
	if err := db.Where("id = ?", c.Params("id")).First(&opp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Opportunity not found!", nil)
	}

	updates := map[string]interface{}{
		"title":            reqData.Title,
		"organization":     reqData.Organization,
		"location":         reqData.Location,
		"theme":            reqData.Theme,
		"type":             reqData.Type,
		"tags":             strings.Join(reqData.Tags, ","),
		"description":      reqData.Description,
		"full_description": reqData.FullDescription,
		"amount":           reqData.Amount,
		"deadline":         deadline,
		"application_link": reqData.ApplicationLink,
	}
	if err := db.Model(&opp).Updates(updates).Error; err != nil {
		log.Printf("Error updating opportunity: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update opportunity!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Opportunity updated successfully.", toView(opp, time.Now()))
}

// DeleteOpportunity removes a listing, admin only.
func DeleteOpportunity(c *fiber.Ctx) error {
	db := database.Database.Db

	var opp models.Opportunity
	if err := db.Where("id = ?", c.Params("id")).First(&opp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Opportunity not found!", nil)
	}

	if err := db.Delete(&opp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete opportunity!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Opportunity deleted successfully.", nil)
}

// Apply bumps the applicant counter and hands back the application link.
func Apply(c *fiber.Ctx) error {
	db := database.Database.Db

	var opp models.Opportunity
	if err := db.Where("id = ?", c.Params("id")).First(&opp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Opportunity not found!", nil)
	}

	if !opp.IsActive(time.Now()) {
		return middleware.JsonResponse(c, fiber.StatusGone, false, "This opportunity has closed!", nil)
	}

	if err := db.Model(&opp).UpdateColumn("applicants", gorm.Expr("applicants + 1")).Error; err != nil {
		log.Printf("Failed to bump applicants for opportunity %d: %v", opp.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Application recorded.", fiber.Map{
		"application_link": opp.ApplicationLink,
	})
}
