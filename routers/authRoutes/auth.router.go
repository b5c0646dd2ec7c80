package authRoutes

import (
	authControllers "agriconnect/controllers/auth"
	authValidators "agriconnect/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Patch("/verify/otp", authValidators.VerifyOTP(), authControllers.VerifyOTP)
	authGroup.Post("/forgot/password", authValidators.ForgotPassword(), authControllers.ForgotPassword)
	authGroup.Patch("/reset/password", authValidators.ResetPassword(), authControllers.ResetPassword)
}
