package main

import (
	"agriconnect/config"
	"agriconnect/database"
	authRoutes "agriconnect/routers/authRoutes"
	kycRoutes "agriconnect/routers/kycRoutes"
	ndaRoutes "agriconnect/routers/ndaRoutes"
	opportunityRoutes "agriconnect/routers/opportunityRoutes"
	projectRoutes "agriconnect/routers/projectRoutes"
	"agriconnect/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"log"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New(fiber.Config{
		BodyLimit: 12 * 1024 * 1024, // proposal PDFs plus form overhead
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Expired OTP and reset-link cleanup
	scheduler := utils.StartAuthScheduler()
	defer scheduler.Stop()

	authRoutes.SetupAuthRoutes(app)
	kycRoutes.SetupKYCRoutes(app)
	projectRoutes.SetupProjectRoutes(app)
	opportunityRoutes.SetupOpportunityRoutes(app)
	ndaRoutes.SetupNDARoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
