package opportunityValidator

import (
	"agriconnect/middleware"
	"agriconnect/models"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// OpportunityRequest is the payload for creating or updating a listing.
type OpportunityRequest struct {
	Title           string   `json:"title"`
	Organization    string   `json:"organization"`
	Location        string   `json:"location"`
	Theme           string   `json:"theme"`
	Type            string   `json:"type"`
	Tags            []string `json:"tags"`
	Description     string   `json:"description"`
	FullDescription string   `json:"full_description"`
	Amount          string   `json:"amount"`
	Deadline        string   `json:"deadline"`
	ApplicationLink string   `json:"application_link"`
}

func validateOpportunity(reqData *OpportunityRequest) (time.Time, map[string]string) {
	errors := make(map[string]string)

	if strings.TrimSpace(reqData.Title) == "" {
		errors["title"] = "Title is required!"
	}
	if strings.TrimSpace(reqData.Organization) == "" {
		errors["organization"] = "Organization is required!"
	}
	if !models.IsValidOpportunityType(reqData.Type) {
		errors["type"] = "Unknown opportunity type!"
	}

	var deadline time.Time
	if reqData.Deadline == "" {
		errors["deadline"] = "Deadline is required!"
	} else {
		d, err := time.Parse("2006-01-02", reqData.Deadline)
		if err != nil {
			errors["deadline"] = "Deadline must be in YYYY-MM-DD format!"
		} else if d.Before(time.Now().Truncate(24 * time.Hour)) {
			errors["deadline"] = "Deadline cannot be in the past."
		} else {
			deadline = d
		}
	}

	return deadline, errors
}

// Create validates a new listing.
func Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(OpportunityRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		deadline, errors := validateOpportunity(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("opportunityRequest", reqData)
		c.Locals("deadline", deadline)
		return c.Next()
	}
}

// Update validates a listing update; same rules as Create.
func Update() fiber.Handler {
	return Create()
}
