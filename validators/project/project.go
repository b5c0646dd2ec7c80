package projectValidator

import (
	"agriconnect/middleware"
	"agriconnect/models"
	kycValidator "agriconnect/validators/kyc"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// MaxProposalSize bounds the uploaded proposal PDF.
const MaxProposalSize = 10 * 1024 * 1024

var proposalExts = []string{".pdf"}

// CreateProjectRequest is the multipart field set for project creation.
type CreateProjectRequest struct {
	Name         string `form:"name" validate:"required,max=100"`
	Title        string `form:"title" validate:"required,max=200"`
	Email        string `form:"email" validate:"required,email"`
	Brief        string `form:"brief" validate:"required,max=500"`
	Description  string `form:"description" validate:"required"`
	Benefits     string `form:"benefits"`
	TargetAmount string `form:"target_amount" validate:"required"`
	Deadline     string `form:"deadline" validate:"required"`
	ImageURL     string `form:"image_url"`
}

// CreateProject validates metadata and the proposal file, stashing the parsed
// values in locals.
func CreateProject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateProjectRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
			}
			for _, fe := range verrs {
				errors[strings.ToLower(fe.Field())] = "Invalid value!"
			}
		}

		amount, err := decimal.NewFromString(reqData.TargetAmount)
		if reqData.TargetAmount != "" && (err != nil || !amount.IsPositive()) {
			errors["target_amount"] = "Target amount must be a positive number!"
		}

		var deadline *time.Time
		if reqData.Deadline != "" {
			d, err := time.Parse("2006-01-02", reqData.Deadline)
			if err != nil {
				errors["deadline"] = "Deadline must be in YYYY-MM-DD format!"
			} else if d.Before(time.Now().Truncate(24 * time.Hour)) {
				errors["deadline"] = "Deadline cannot be in the past!"
			} else {
				deadline = &d
			}
		}

		file, ferr := c.FormFile("file")
		if ferr != nil {
			errors["file"] = "Proposal PDF is required!"
		} else if msg := kycValidator.CheckUpload(file, MaxProposalSize, proposalExts); msg != "" {
			errors["file"] = msg
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("projectRequest", reqData)
		c.Locals("targetAmount", amount)
		c.Locals("deadline", deadline)
		c.Locals("proposalFile", file)
		return c.Next()
	}
}

// ReplaceProposal validates a proposal-file replacement upload.
func ReplaceProposal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"file": "Proposal PDF is required!"})
		}
		if msg := kycValidator.CheckUpload(file, MaxProposalSize, proposalExts); msg != "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"file": msg})
		}

		c.Locals("proposalFile", file)
		return c.Next()
	}
}

// SetStatus validates an admin status change.
func SetStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Status string `json:"status"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if !models.IsValidProjectStatus(reqData.Status) {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"status": "Unknown project status!",
			})
		}

		c.Locals("statusRequest", reqData)
		return c.Next()
	}
}

// FileHeader is a typed helper for handlers reading the upload back out of
// locals.
func FileHeader(c *fiber.Ctx, key string) *multipart.FileHeader {
	fh, _ := c.Locals(key).(*multipart.FileHeader)
	return fh
}
