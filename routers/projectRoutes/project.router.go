package projectRoutes

import (
	projectControllers "agriconnect/controllers/project"
	"agriconnect/middleware"
	projectValidators "agriconnect/validators/project"

	"github.com/gofiber/fiber/v2"
)

func SetupProjectRoutes(app *fiber.App) {
	projectGroup := app.Group("/projects", middleware.JWTMiddleware)

	projectGroup.Post("/", projectValidators.CreateProject(), projectControllers.CreateProject)
	projectGroup.Get("/", projectControllers.ListProjects)
	projectGroup.Get("/mine", projectControllers.MyProjects)
	projectGroup.Get("/search", projectControllers.SearchProjects)
	projectGroup.Get("/recommended", projectControllers.RecommendedProjects)
	projectGroup.Get("/:id", projectControllers.ProjectDetail)
	projectGroup.Get("/:id/proposal", projectControllers.ServeProposal)
	projectGroup.Put("/:id/proposal", projectValidators.ReplaceProposal(), projectControllers.ReplaceProposal)

	adminGroup := app.Group("/admin/projects", middleware.JWTMiddleware, middleware.RequireAdmin)

	adminGroup.Patch("/:id/status", projectValidators.SetStatus(), projectControllers.SetStatus)
}
