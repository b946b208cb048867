package main

import (
	"lms/config"
	scormControllers "lms/controllers/scorm"
	"lms/database"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	scormRoutes "lms/routers/scormRoutes"
	"lms/utils"

	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve extracted package content to the player frame
	app.Static("/lms/content", config.AppConfig.StorageDir)

	authRoutes.SetupAuthRoutes(app)
	scormRoutes.SetupScormRoutes(app)
	courseRoutes.SetupCourseRoutes(app)

	// Sweep runtime sessions whose content frame went away
	reaper := utils.InitializeSessionReaper(scormControllers.Sessions)
	defer reaper.Stop()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
