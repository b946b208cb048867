package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the enrollment routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollLearner(), controllers.EnrollLearner)
	courseGroup.Get("/:id/enrollments", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseEnrollments)
}
