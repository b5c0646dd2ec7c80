package kycRoutes

import (
	kycControllers "agriconnect/controllers/kyc"
	"agriconnect/middleware"
	kycValidators "agriconnect/validators/kyc"

	"github.com/gofiber/fiber/v2"
)

func SetupKYCRoutes(app *fiber.App) {
	kycGroup := app.Group("/kyc", middleware.JWTMiddleware)

	kycGroup.Post("/investor", kycValidators.SubmitInvestorKYC(), kycControllers.SubmitInvestorKYC)
	kycGroup.Post("/farmer", kycValidators.SubmitFarmerKYC(), kycControllers.SubmitFarmerKYC)
	kycGroup.Get("/me", kycControllers.MyKYC)
	kycGroup.Get("/status", kycControllers.Status)
	kycGroup.Get("/logs", kycControllers.Logs)
	kycGroup.Get("/autofill", kycControllers.Autofill)
	kycGroup.Post("/request/change", kycValidators.RequestChange(), kycControllers.RequestChange)

	adminGroup := app.Group("/admin/kyc", middleware.JWTMiddleware, middleware.RequireAdmin)

	adminGroup.Get("/pending", kycControllers.ListPending)
	adminGroup.Patch("/verify/:userId", kycValidators.AdminVerify(), kycControllers.VerifyKYC)
}
