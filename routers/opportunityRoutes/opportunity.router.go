package opportunityRoutes

import (
	opportunityControllers "agriconnect/controllers/opportunity"
	"agriconnect/middleware"
	opportunityValidators "agriconnect/validators/opportunity"

	"github.com/gofiber/fiber/v2"
)

func SetupOpportunityRoutes(app *fiber.App) {
	oppGroup := app.Group("/opportunities", middleware.JWTMiddleware)

	oppGroup.Get("/", opportunityControllers.ListOpportunities)
	oppGroup.Get("/:id", opportunityControllers.OpportunityDetail)
	oppGroup.Post("/:id/apply", opportunityControllers.Apply)

	adminGroup := app.Group("/admin/opportunities", middleware.JWTMiddleware, middleware.RequireAdmin)

	adminGroup.Post("/", opportunityValidators.Create(), opportunityControllers.CreateOpportunity)
	adminGroup.Put("/:id", opportunityValidators.Update(), opportunityControllers.UpdateOpportunity)
	adminGroup.Delete("/:id", opportunityControllers.DeleteOpportunity)
}
