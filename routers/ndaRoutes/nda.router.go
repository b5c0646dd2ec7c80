package ndaRoutes

import (
	ndaControllers "agriconnect/controllers/nda"
	"agriconnect/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupNDARoutes(app *fiber.App) {
	ndaGroup := app.Group("/nda", middleware.JWTMiddleware)

	ndaGroup.Post("/sign", ndaControllers.SubmitNDA)
	ndaGroup.Get("/status", ndaControllers.NDAStatus)
}
