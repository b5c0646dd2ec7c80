package authController

import (
	"agriconnect/config"
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	"agriconnect/utils"
	authValidator "agriconnect/validators/auth"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// maxResetsPerDay bounds password reset requests per user.
const maxResetsPerDay = 3

// Signup registers a user together with their profile fields in one
// transaction. Role is fixed at registration and never changes afterwards.
func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		FirstName:    reqData.FirstName,
		LastName:     reqData.LastName,
		Email:        reqData.Email,
		Password:     string(hashedPassword),
		Phone:        reqData.Phone,
		Role:         reqData.Role,
		Organization: reqData.Organization,
		InvestorType: reqData.InvestorType,
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	}); err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	// Clean Response
	newUser.Password = ""

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

// Login checks credentials and issues an OTP. The JWT is only handed out once
// the code is verified.
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = false", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	code := utils.GenerateOTP()
	otp := models.OTP{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(utils.OTPValidity),
	}
	if err := db.Create(&otp).Error; err != nil {
		log.Printf("Error saving OTP: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue OTP!", nil)
	}

	if err := utils.SendOTPEmail(code, user.FullName(), user.Email); err != nil {
		log.Printf("Error sending OTP email: %v", err)
	}
	if user.Phone != "" {
		if err := utils.SendOTPToMobile(user.Phone, code); err != nil {
			log.Printf("Error sending OTP SMS: %v", err)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent. Verify to complete login.", fiber.Map{
		"email":      user.Email,
		"expires_in": int(utils.OTPValidity.Seconds()),
	})
}

// VerifyOTP exchanges a valid code for the session token.
func VerifyOTP(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = false", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	var otp models.OTP
	err := db.Where("user_id = ? AND code = ?", user.ID, reqData.OTP).
		Order("created_at DESC").First(&otp).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP!", nil)
	}

	if otp.IsExpired(time.Now()) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "OTP has expired. Request a new one.", nil)
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"is_email_verified": true,
			"last_login":        now,
		}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&otp).Error
	})
	if err != nil {
		log.Printf("Error finalizing login: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to complete login!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.FullName(), user.Role, user.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ForgotPassword creates a reset link, rate limited per user per day.
func ForgotPassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*struct {
		Email string `json:"email"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = false", reqData.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No user with that email found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	var recent int64
	dayAgo := time.Now().Add(-24 * time.Hour)
	db.Model(&models.PasswordReset{}).
		Where("user_id = ? AND created_at >= ?", user.ID, dayAgo).Count(&recent)
	if recent >= maxResetsPerDay {
		return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many reset requests. Try again tomorrow.", nil)
	}

	reset := models.PasswordReset{
		UserID:  user.ID,
		ResetID: uuid.NewString(),
	}
	if err := db.Create(&reset).Error; err != nil {
		log.Printf("Error creating password reset: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	if err := utils.SendPasswordResetEmail(reset.ResetID, user.FullName(), user.Email); err != nil {
		log.Printf("Error sending reset email: %v", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset link sent.", nil)
}

// ResetPassword consumes a reset link and sets the new password.
func ResetPassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*struct {
		ResetID         string `json:"reset_id"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var reset models.PasswordReset
	if err := db.Where("reset_id = ?", reqData.ResetID).First(&reset).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Invalid or expired reset link!", nil)
	}

	if time.Since(reset.CreatedAt) > 24*time.Hour {
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Reset link has expired!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to hash password!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password", string(hashedPassword)).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&reset).Error
	})
	if err != nil {
		log.Printf("Error updating user password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update password!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully.", nil)
}
