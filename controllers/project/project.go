package projectController

import (
	"agriconnect/config"
	"agriconnect/database"
	"agriconnect/middleware"
	"agriconnect/models"
	"agriconnect/services"
	"agriconnect/utils"
	projectValidator "agriconnect/validators/project"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func projectService() *services.ProjectService {
	wm := services.NewWatermarker(config.AppConfig.MediaRoot, config.AppConfig.WatermarkLabel)
	return services.NewProjectService(database.Database.Db, wm)
}

func policyService() *services.PolicyService {
	return services.NewPolicyService(database.Database.Db)
}

// policyErrorResponse turns a denial into the right status code and leaves
// storage failures as 500s.
func policyErrorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotAuthenticated) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Authentication required!", nil)
	}
	if services.IsDenial(err) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, denialMessage(err), nil)
	}
	log.Printf("Policy check error: %v", err)
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
}

func denialMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNoProfile):
		return "Complete your profile first!"
	case errors.Is(err, services.ErrWrongRole):
		return "Your role does not allow this action!"
	case errors.Is(err, services.ErrKYCMissing):
		return "Submit your KYC before continuing!"
	case errors.Is(err, services.ErrKYCUnverified):
		return "Your KYC must be verified before continuing!"
	case errors.Is(err, services.ErrNDARequired):
		return "Sign the NDA to view proposals!"
	case errors.Is(err, services.ErrNotOwner):
		return "Only the project owner can do this!"
	}
	return "Access denied!"
}

// CreateProject stores a new project with its proposal PDF. Only verified
// farmer-like users get this far.
func CreateProject(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := policyService().CanCreateProject(user); err != nil {
		return policyErrorResponse(c, err)
	}

	reqData, ok := c.Locals("projectRequest").(*projectValidator.CreateProjectRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}
	amount, _ := c.Locals("targetAmount").(decimal.Decimal)
	deadline, _ := c.Locals("deadline").(*time.Time)

	file := projectValidator.FileHeader(c, "proposalFile")
	if file == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Proposal PDF is required!", nil)
	}
	src, err := file.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read uploaded file!", nil)
	}
	defer src.Close()

	in := services.CreateProjectInput{
		Name:         reqData.Name,
		Title:        reqData.Title,
		Email:        reqData.Email,
		Brief:        reqData.Brief,
		Description:  reqData.Description,
		Benefits:     reqData.Benefits,
		TargetAmount: amount,
		Deadline:     deadline,
		ImageURL:     reqData.ImageURL,
	}

	project, err := projectService().Create(user, in, src)
	if err != nil {
		log.Printf("Error creating project: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create project!", nil)
	}

	if err := utils.SendProjectCreatedEmail(user.FullName(), user.Email, project.Title, project.ID); err != nil {
		log.Printf("Error sending project notification: %v", err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Project created successfully.", project)
}

// ListProjects returns approved projects for the marketplace board.
func ListProjects(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := policyService().CanViewProject(user, nil); err != nil {
		return policyErrorResponse(c, err)
	}

	projects, err := projectService().ListApproved()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch projects!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Projects fetched successfully.", projects)
}

// ProjectDetail returns one project. Non-approved projects stay hidden from
// everyone but the owner and admins.
func ProjectDetail(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	project, err := projectService().GetByID(c.Params("id"))
	if err != nil {
		return projectErrorResponse(c, err)
	}

	if err := policyService().CanViewProject(user, project); err != nil {
		return policyErrorResponse(c, err)
	}

	if project.Status != models.ProjectApproved && project.FarmerID != user.ID && !user.IsAdmin {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Project not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Project fetched successfully.", project)
}

// MyProjects lists the caller's own projects along with their funding totals.
func MyProjects(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	svc := projectService()

	projects, err := svc.ListByOwner(user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch projects!", nil)
	}

	total, count, err := svc.SumByOwner(user.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch projects!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Projects fetched successfully.", fiber.Map{
		"projects":     projects,
		"total_target": total,
		"count":        count,
	})
}

// SearchProjects filters approved projects by text and amount.
func SearchProjects(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := policyService().CanViewProject(user, nil); err != nil {
		return policyErrorResponse(c, err)
	}

	filters := services.SearchFilters{Query: c.Query("search")}
	if raw := c.Query("farmer"); raw != "" {
		farmerID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"farmer": "Must be a user id!"})
		}
		filters.FarmerID = uint(farmerID)
	}
	if raw := c.Query("max_amount"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"max_amount": "Must be a number!"})
		}
		filters.MaxAmount = &max
	}

	projects, err := projectService().Search(filters)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to search projects!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Projects fetched successfully.", projects)
}

// RecommendedProjects returns due-soon and within-budget picks for a verified
// investor.
func RecommendedProjects(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if user.Role != models.RoleInvestor {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Recommendations are for investors!", nil)
	}

	kyc, err := services.NewKYCService(database.Database.Db).GetInvestorByUser(user.ID)
	if err != nil {
		if errors.Is(err, services.ErrKYCNotFound) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Submit your KYC before continuing!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch recommendations!", nil)
	}
	if !kyc.IsVerified {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your KYC must be verified before continuing!", nil)
	}

	dueSoon, withinBudget, err := projectService().Recommended(kyc, time.Now())
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch recommendations!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recommendations fetched successfully.", fiber.Map{
		"ending_soon":   dueSoon,
		"within_budget": withinBudget,
	})
}

// ReplaceProposal swaps the proposal file and regenerates the watermarked
// copy. Identical uploads are a no-op.
func ReplaceProposal(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	file := projectValidator.FileHeader(c, "proposalFile")
	if file == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Proposal PDF is required!", nil)
	}
	src, err := file.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read uploaded file!", nil)
	}
	defer src.Close()

	project, changed, err := projectService().ReplaceOriginal(c.Params("id"), user, src)
	if err != nil {
		if services.IsDenial(err) {
			return policyErrorResponse(c, err)
		}
		return projectErrorResponse(c, err)
	}

	message := "Proposal unchanged."
	if changed {
		message = "Proposal replaced successfully."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, project)
}

// SetStatus moves a project through its lifecycle. Admin only, and only along
// allowed transitions.
func SetStatus(c *fiber.Ctx) error {
	reqData, ok := c.Locals("statusRequest").(*struct {
		Status string `json:"status"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	project, err := projectService().SetStatus(c.Params("id"), reqData.Status)
	if err != nil {
		return projectErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Project status updated.", project)
}

// ServeProposal streams the watermarked proposal PDF. The original upload is
// never served on this path.
func ServeProposal(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	project, err := projectService().GetByID(c.Params("id"))
	if err != nil {
		return projectErrorResponse(c, err)
	}

	if err := policyService().CanViewProposal(user, project); err != nil {
		return policyErrorResponse(c, err)
	}

	if project.WatermarkedProposal == "" {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Proposal is not available yet!", nil)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.SendFile(project.WatermarkedProposal)
}

// projectErrorResponse maps project service errors onto the envelope.
func projectErrorResponse(c *fiber.Ctx, err error) error {
	var transition *services.InvalidTransitionError

	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Project not found!", nil)
	case errors.Is(err, services.ErrNoProposal):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Proposal is not available yet!", nil)
	case errors.As(err, &transition):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, transition.Error(), nil)
	default:
		log.Printf("Project error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
}
