package kycValidator

import (
	"agriconnect/middleware"
	"agriconnect/models"
	"agriconnect/utils"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Upload constraints for KYC documents.
const (
	MaxIDDocumentSize     = 5 * 1024 * 1024
	MaxProfilePictureSize = 2 * 1024 * 1024
)

var (
	idDocumentExts     = []string{".pdf", ".jpg", ".jpeg", ".png"}
	profilePictureExts = []string{".jpg", ".jpeg", ".png"}
)

// InvestorKYCRequest is the multipart field set for an investor submission.
type InvestorKYCRequest struct {
	FullName     string `form:"full_name" validate:"required,min=3,max=255"`
	DateOfBirth  string `form:"date_of_birth" validate:"required"`
	Nationality  string `form:"nationality" validate:"required,max=100"`
	PhoneNumber  string `form:"phone_number" validate:"required,max=20"`
	Email        string `form:"email" validate:"required,email"`
	IDType       string `form:"id_type" validate:"required"`
	IDNumber     string `form:"id_number" validate:"required,max=100"`
	Address      string `form:"address" validate:"required"`
	Occupation   string `form:"occupation" validate:"required,max=200"`
	IncomeSource string `form:"income_source" validate:"required,oneof=salary business investment other"`
	AnnualIncome string `form:"annual_income" validate:"required"`
	Purpose      string `form:"purpose" validate:"required"`
}

// FarmerKYCRequest is the multipart field set for a farmer submission.
type FarmerKYCRequest struct {
	FullName    string `form:"full_name" validate:"required,min=3,max=255"`
	Email       string `form:"email" validate:"required,email"`
	PhoneNumber string `form:"phone_number" validate:"required,max=20"`
	Role        string `form:"role" validate:"required"`
	DateOfBirth string `form:"date_of_birth" validate:"required"`
	Nationality string `form:"nationality" validate:"required,max=100"`
	Background  string `form:"background" validate:"required"`
	Address     string `form:"address" validate:"required"`
	IDType      string `form:"id_type" validate:"required"`
	IDNumber    string `form:"id_number" validate:"required,max=100"`
}

// IsValidPhone accepts digits with optional +, - and space separators.
func IsValidPhone(phone string) bool {
	stripped := strings.NewReplacer("+", "", "-", "", " ", "").Replace(phone)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Age computes full years between dob and now.
func Age(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// CheckUpload validates size and extension of an uploaded file. Returns an
// empty string when the file is acceptable.
func CheckUpload(fh *multipart.FileHeader, maxBytes int64, allowedExts []string) string {
	if fh == nil {
		return "File is required!"
	}
	if fh.Size > maxBytes {
		return fmt.Sprintf("File size must be less than %dMB.", maxBytes/(1024*1024))
	}
	if !utils.HasAllowedExtension(fh.Filename, allowedExts) {
		return "File must be one of: " + strings.Join(allowedExts, ", ")
	}
	return ""
}

// structErrors maps validator.v10 failures onto field names.
func structErrors(err error, errors map[string]string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["request"] = "Invalid request data!"
		return
	}
	for _, fe := range verrs {
		field := toSnake(fe.Field())
		if fe.Tag() == "required" {
			errors[field] = "This field is required!"
		} else {
			errors[field] = "Invalid value!"
		}
	}
}

func toSnake(field string) string {
	runes := []rune(field)
	var b strings.Builder
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			// Acronym runs like "ID" stay together
			prevLower := i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseDOB(raw string, errors map[string]string) time.Time {
	dob, err := time.Parse("2006-01-02", raw)
	if err != nil {
		errors["date_of_birth"] = "Date of birth must be in YYYY-MM-DD format!"
		return time.Time{}
	}
	if Age(dob, time.Now()) < 18 {
		errors["date_of_birth"] = "You must be at least 18 years old to register."
	}
	return dob
}

func checkKYCFiles(c *fiber.Ctx, errors map[string]string) (idDoc, picture *multipart.FileHeader) {
	idDoc, err := c.FormFile("id_document")
	if err != nil {
		errors["id_document"] = "ID document is required!"
	} else if msg := CheckUpload(idDoc, MaxIDDocumentSize, idDocumentExts); msg != "" {
		errors["id_document"] = msg
	}

	picture, err = c.FormFile("profile_picture")
	if err != nil {
		errors["profile_picture"] = "Profile picture is required!"
	} else if msg := CheckUpload(picture, MaxProfilePictureSize, profilePictureExts); msg != "" {
		errors["profile_picture"] = msg
	}
	return idDoc, picture
}

// SubmitInvestorKYC validates the investor submission and stores the prepared
// record plus file headers in locals.
func SubmitInvestorKYC() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(InvestorKYCRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			structErrors(err, errors)
		}
		if reqData.PhoneNumber != "" && !IsValidPhone(reqData.PhoneNumber) {
			errors["phone_number"] = "Please enter a valid phone number."
		}

		var dob time.Time
		if _, present := errors["date_of_birth"]; !present && reqData.DateOfBirth != "" {
			dob = parseDOB(reqData.DateOfBirth, errors)
		}

		income, err := decimal.NewFromString(reqData.AnnualIncome)
		if reqData.AnnualIncome != "" && (err != nil || !income.IsPositive()) {
			errors["annual_income"] = "Annual income must be greater than 0"
		}

		idDoc, picture := checkKYCFiles(c, errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		rec := models.InvestorKYC{
			FullName:     reqData.FullName,
			DateOfBirth:  dob,
			Nationality:  reqData.Nationality,
			PhoneNumber:  reqData.PhoneNumber,
			Email:        reqData.Email,
			IDType:       reqData.IDType,
			IDNumber:     reqData.IDNumber,
			Address:      reqData.Address,
			Occupation:   reqData.Occupation,
			IncomeSource: reqData.IncomeSource,
			AnnualIncome: income,
			Purpose:      reqData.Purpose,
		}

		c.Locals("kycRecord", rec)
		c.Locals("idDocument", idDoc)
		c.Locals("profilePicture", picture)
		return c.Next()
	}
}

// SubmitFarmerKYC validates the farmer submission and stores the prepared
// record plus file headers in locals.
func SubmitFarmerKYC() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(FarmerKYCRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			structErrors(err, errors)
		}
		if reqData.PhoneNumber != "" && !IsValidPhone(reqData.PhoneNumber) {
			errors["phone_number"] = "Please enter a valid phone number."
		}
		if reqData.Role != "" && !models.IsFarmerLikeRole(reqData.Role) {
			errors["role"] = "Role must be Farmer, Student or Entrepreneur!"
		}

		var dob time.Time
		if _, present := errors["date_of_birth"]; !present && reqData.DateOfBirth != "" {
			dob = parseDOB(reqData.DateOfBirth, errors)
		}

		idDoc, picture := checkKYCFiles(c, errors)

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		rec := models.FarmerKYC{
			FullName:    reqData.FullName,
			Email:       reqData.Email,
			PhoneNumber: reqData.PhoneNumber,
			Role:        reqData.Role,
			DateOfBirth: dob,
			Nationality: reqData.Nationality,
			Background:  reqData.Background,
			Address:     reqData.Address,
			IDType:      reqData.IDType,
			IDNumber:    reqData.IDNumber,
		}

		c.Locals("kycRecord", rec)
		c.Locals("idDocument", idDoc)
		c.Locals("profilePicture", picture)
		return c.Next()
	}
}

// AdminVerify validates the admin decision payload.
func AdminVerify() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Action       string `json:"action"`
			AllowChanges bool   `json:"allow_changes"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		switch reqData.Action {
		case models.KYCActionApproved, models.KYCActionRejected, models.KYCActionPending:
		default:
			return middleware.ValidationErrorResponse(c, map[string]string{
				"action": "Action must be approved, rejected or pending!",
			})
		}

		c.Locals("verifyRequest", reqData)
		return c.Next()
	}
}

// RequestChange validates the change-request payload.
func RequestChange() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason           string `json:"reason"`
			RequestedChanges string `json:"requested_changes"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if strings.TrimSpace(reqData.Reason) == "" {
			errors["reason"] = "Reason is required!"
		}
		if strings.TrimSpace(reqData.RequestedChanges) == "" {
			errors["requested_changes"] = "Requested changes are required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("changeRequest", reqData)
		return c.Next()
	}
}
