package scormRoutes

import (
	controllers "lms/controllers/scorm"
	"lms/middleware"
	validators "lms/validators/scorm"

	"github.com/gofiber/fiber/v2"
)

// SetupScormRoutes sets up package management, tracking and runtime routes
func SetupScormRoutes(app *fiber.App) {
	packageGroup := app.Group("/lms/scorm/packages")

	packageGroup.Post("/", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), validators.UploadPackage(), controllers.UploadPackage)
	packageGroup.Get("/", middleware.JWTMiddleware, controllers.GetAllPackages)
	packageGroup.Get("/:id", middleware.JWTMiddleware, validators.PackageID(), controllers.GetPackageDetails)
	packageGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), validators.PackageID(), validators.UpdatePackage(), controllers.UpdatePackage)
	packageGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"), validators.PackageID(), controllers.DeletePackage)

	// Tracking commit and resume data
	trackingGroup := app.Group("/lms/scorm")
	trackingGroup.Post("/commit", middleware.JWTMiddleware, validators.CommitTracking(), controllers.CommitTracking)
	trackingGroup.Get("/tracking", middleware.JWTMiddleware, validators.GetTracking(), controllers.GetTracking)

	// Runtime bridge for the content frame
	runtimeGroup := app.Group("/lms/runtime")
	runtimeGroup.Post("/open", middleware.JWTMiddleware, validators.OpenSession(), controllers.OpenRuntimeSession)
	runtimeGroup.Post("/:sessionId/call", validators.RuntimeCall(), controllers.CallRuntime)
	runtimeGroup.Post("/:sessionId/close", controllers.CloseRuntimeSession)
}
