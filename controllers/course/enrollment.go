package controllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// EnrollLearner enrolls a learner of the caller's organization into a course
func EnrollLearner(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)
	learnerID := c.Locals("learnerID").(int)

	// Course must exist in the caller's organization
	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Learner must exist in the same organization
	var learner models.Learner
	if err := database.Database.Db.Where("id = ? AND organization_id = ? AND is_deleted = ?", learnerID, user.OrganizationID, false).First(&learner).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Learner not found!", nil)
	}

	// Reject duplicate enrollment
	var existing courseModels.Enrollment
	if err := database.Database.Db.Where("learner_id = ? AND course_id = ? AND is_deleted = ?", learnerID, courseID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Learner already enrolled in this course!", nil)
	}

	enrollment := courseModels.Enrollment{
		LearnerID:      uint(learnerID),
		CourseID:       uint(courseID),
		OrganizationID: user.OrganizationID,
		Statut:         courseModels.EnrollmentNotStarted,
	}

	tx := database.Database.Db.Begin()
	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll learner!", nil)
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Learner enrolled successfully!", enrollment)
}

// GetCourseEnrollments lists enrollments of a course with their progress
func GetCourseEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("course_id = ? AND organization_id = ? AND is_deleted = ?", courseID, user.OrganizationID, false).
		Order("created_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	// Progress summary over the course
	completed := 0
	inProgress := 0
	for _, e := range enrollments {
		switch e.Statut {
		case courseModels.EnrollmentComplete:
			completed++
		case courseModels.EnrollmentInProgress:
			inProgress++
		}
	}

	response := fiber.Map{
		"enrollments": enrollments,
		"stats": fiber.Map{
			"total":       len(enrollments),
			"completed":   completed,
			"in_progress": inProgress,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", response)
}
