package kycController

import (
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	"agriconnect/services"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ListPending returns unverified submissions for admin review. An optional
// type query narrows to one variant.
func ListPending(c *fiber.Ctx) error {
	svc := kycService()
	kycType := c.Query("type")

	data := fiber.Map{}

	if kycType == "" || kycType == "investor" {
		investors, err := svc.ListPendingInvestor()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch pending KYC!", nil)
		}
		data["investors"] = investors
	}
	if kycType == "" || kycType == "farmer" {
		farmers, err := svc.ListPendingFarmer()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch pending KYC!", nil)
		}
		data["farmers"] = farmers
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending KYC fetched successfully.", data)
}

// VerifyKYC applies the admin decision to a user's record.
func VerifyKYC(c *fiber.Ctx) error {
	admin, ok := c.Locals("currentUser").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	targetID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}

	reqData, ok := c.Locals("verifyRequest").(*struct {
		Action       string `json:"action"`
		AllowChanges bool   `json:"allow_changes"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var target models.User
	if err := db.Where("id = ? AND is_deleted = false", uint(targetID)).First(&target).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	result, err := kycService().Verify(admin, &target, reqData.Action, reqData.AllowChanges)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrKYCNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No KYC record found for this user!", nil)
		case errors.Is(err, services.ErrUnknownAction):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown verification action!", nil)
		default:
			log.Printf("KYC verify error: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify KYC!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "KYC "+reqData.Action+".", result)
}
