package ndaController

import (
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubmitNDA records the signed agreement for an investor. One per user.
func SubmitNDA(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != models.RoleInvestor {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only investors sign the NDA!", nil)
	}

	reqData := new(struct {
		FullName  string `json:"full_name"`
		Email     string `json:"email"`
		Company   string `json:"company"`
		Signature string `json:"signature"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	fieldErrors := make(map[string]string)
	if strings.TrimSpace(reqData.FullName) == "" {
		fieldErrors["full_name"] = "Full name is required!"
	}
	if strings.TrimSpace(reqData.Signature) == "" {
		fieldErrors["signature"] = "Signature is required!"
	}
	if len(fieldErrors) > 0 {
		return middleware.ValidationErrorResponse(c, fieldErrors)
	}

	db := database.Database.Db

	var existing models.NDAAgreement
	err = db.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "NDA already signed!", existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	email := reqData.Email
	if email == "" {
		email = user.Email
	}

	nda := models.NDAAgreement{
		UserID:     user.ID,
		FullName:   reqData.FullName,
		Email:      email,
		Company:    reqData.Company,
		DateSigned: time.Now(),
		IPAddress:  c.IP(),
		Signature:  reqData.Signature,
	}
	if err := db.Create(&nda).Error; err != nil {
		log.Printf("Error saving NDA: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record NDA!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "NDA signed successfully.", nda)
}

// NDAStatus reports whether the caller has signed.
func NDAStatus(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var nda models.NDAAgreement
	err = database.Database.Db.Where("user_id = ?", user.ID).First(&nda).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusOK, true, "NDA status fetched successfully.", fiber.Map{
				"signed": false,
			})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "NDA status fetched successfully.", fiber.Map{
		"signed":      true,
		"date_signed": nda.DateSigned,
	})
}
