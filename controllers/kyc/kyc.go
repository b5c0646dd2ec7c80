package kycController

import (
	"agriconnect/config"
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	"agriconnect/services"
	"agriconnect/utils"
	"errors"
	"log"
	"mime/multipart"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

func kycService() *services.KYCService {
	return services.NewKYCService(database.Database.Db)
}

// saveKYCFiles stores the uploaded documents under the media root and returns
// their relative paths.
func saveKYCFiles(idDoc, picture *multipart.FileHeader) (idPath, picPath string, err error) {
	docDir := filepath.Join(config.AppConfig.MediaRoot, "kyc", "documents")
	picDir := filepath.Join(config.AppConfig.MediaRoot, "kyc", "pictures")

	idPath, err = utils.SaveUploadedFile(idDoc, docDir)
	if err != nil {
		return "", "", err
	}
	picPath, err = utils.SaveUploadedFile(picture, picDir)
	if err != nil {
		return "", "", err
	}
	return idPath, picPath, nil
}

// SubmitInvestorKYC creates the investor record. A record that exists
// already is rejected with a conflict.
func SubmitInvestorKYC(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	rec, ok := c.Locals("kycRecord").(models.InvestorKYC)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	idDoc, _ := c.Locals("idDocument").(*multipart.FileHeader)
	picture, _ := c.Locals("profilePicture").(*multipart.FileHeader)

	idPath, picPath, err := saveKYCFiles(idDoc, picture)
	if err != nil {
		log.Printf("Error saving KYC files: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save uploaded files!", nil)
	}
	rec.IDDocument = idPath
	rec.ProfilePicture = picPath

	svc := kycService()

	saved, err := svc.SubmitInvestor(user, rec)
	if err != nil {
		return kycErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "KYC submitted successfully.", saved)
}

// SubmitFarmerKYC mirrors the investor flow for farmer roles.
func SubmitFarmerKYC(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	rec, ok := c.Locals("kycRecord").(models.FarmerKYC)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	idDoc, _ := c.Locals("idDocument").(*multipart.FileHeader)
	picture, _ := c.Locals("profilePicture").(*multipart.FileHeader)

	idPath, picPath, err := saveKYCFiles(idDoc, picture)
	if err != nil {
		log.Printf("Error saving KYC files: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save uploaded files!", nil)
	}
	rec.IDDocument = idPath
	rec.ProfilePicture = picPath

	svc := kycService()

	saved, err := svc.SubmitFarmer(user, rec)
	if err != nil {
		return kycErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "KYC submitted successfully.", saved)
}

// MyKYC returns the caller's own record, whichever variant their role uses.
func MyKYC(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	svc := kycService()

	if user.IsFarmerLike() {
		rec, err := svc.GetFarmerByUser(user.ID)
		if err != nil {
			return kycErrorResponse(c, err)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "KYC fetched successfully.", rec)
	}

	rec, err := svc.GetInvestorByUser(user.ID)
	if err != nil {
		return kycErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "KYC fetched successfully.", rec)
}

// Status reports the verification state without exposing the full record.
func Status(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	svc := kycService()

	var verified, changesAllowed, submitted bool
	if user.IsFarmerLike() {
		rec, err := svc.GetFarmerByUser(user.ID)
		if err == nil {
			submitted, verified, changesAllowed = true, rec.IsVerified, rec.ChangesAllowed
		} else if !errors.Is(err, services.ErrKYCNotFound) {
			return kycErrorResponse(c, err)
		}
	} else {
		rec, err := svc.GetInvestorByUser(user.ID)
		if err == nil {
			submitted, verified, changesAllowed = true, rec.IsVerified, rec.ChangesAllowed
		} else if !errors.Is(err, services.ErrKYCNotFound) {
			return kycErrorResponse(c, err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "KYC status fetched successfully.", fiber.Map{
		"submitted":       submitted,
		"is_verified":     verified,
		"changes_allowed": changesAllowed,
	})
}

// Logs returns the caller's verification history, newest first.
func Logs(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	logs, err := kycService().LogsForUser(user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch logs!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logs fetched successfully.", logs)
}

// Autofill returns profile fields the KYC form can prefill.
func Autofill(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Autofill data fetched successfully.", fiber.Map{
		"full_name":    user.FullName(),
		"email":        user.Email,
		"phone_number": user.Phone,
		"role":         user.Role,
	})
}

// RequestChange asks an admin to unlock the verified record for edits.
func RequestChange(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	reqData, ok := c.Locals("changeRequest").(*struct {
		Reason           string `json:"reason"`
		RequestedChanges string `json:"requested_changes"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	if err := kycService().RequestChange(user.ID); err != nil {
		return kycErrorResponse(c, err)
	}

	log.Printf("Change request from user %d: %s (%s)", user.ID, reqData.Reason, reqData.RequestedChanges)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Change request recorded. An admin will review it.", nil)
}

// kycErrorResponse maps service errors onto the response envelope.
func kycErrorResponse(c *fiber.Ctx, err error) error {
	var immutable *services.ImmutableError

	switch {
	case errors.Is(err, services.ErrKYCNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No KYC record found!", nil)
	case errors.Is(err, services.ErrRoleMismatch):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your role cannot submit this KYC form!", nil)
	case errors.Is(err, services.ErrAlreadySubmitted):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "KYC has already been submitted!", nil)
	case errors.As(err, &immutable):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, immutable.Error(), fiber.Map{
			"locked_fields": immutable.Fields,
		})
	default:
		log.Printf("KYC error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process KYC request!", nil)
	}
}
