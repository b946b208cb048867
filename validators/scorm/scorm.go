package scormValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CommitRequest is the commit wire payload from a runtime session
type CommitRequest struct {
	PackageID     uint              `json:"packageId"`
	LearnerID     uint              `json:"learnerId"`
	EnrollmentID  *uint             `json:"enrollmentId"`
	AttemptNumber int               `json:"attemptNumber"`
	Elements      map[string]string `json:"elements"`
}

// TrackingQuery identifies one attempt's stored tracking data
type TrackingQuery struct {
	PackageID     uint
	LearnerID     uint
	AttemptNumber int
}

// OpenSessionRequest asks for a runtime session for a content frame
type OpenSessionRequest struct {
	PackageID     uint  `json:"package_id"`
	LearnerID     uint  `json:"learner_id"`
	EnrollmentID  *uint `json:"enrollment_id"`
	AttemptNumber int   `json:"attempt_number"`
}

// RuntimeCallRequest is one RTE function-table invocation
type RuntimeCallRequest struct {
	Method    string `json:"method"`
	Parameter string `json:"parameter"`
	Element   string `json:"element"`
	Value     string `json:"value"`
	Code      string `json:"code"`
}

// PackageID validates the :id route param
func PackageID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		packageIDStr := strings.TrimSpace(c.Params("id"))
		if packageIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Package ID is required!", nil)
		}

		packageID, err := strconv.Atoi(packageIDStr)
		if err != nil || packageID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Package ID!", nil)
		}

		c.Locals("packageID", packageID)
		return c.Next()
	}
}

// UploadPackage validates the upload form fields (the file itself is checked
// in the controller)
func UploadPackage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var courseID *uint
		if courseIDStr := c.FormValue("course_id"); courseIDStr != "" {
			id, err := strconv.Atoi(courseIDStr)
			if err != nil || id <= 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
			}
			u := uint(id)
			courseID = &u
		}

		if title := c.FormValue("title"); len(title) > 255 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Title must be 255 characters or less!", nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// UpdatePackage validates the editable package fields and stores the update
// map for the controller
func UpdatePackage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
			CourseID    *uint   `json:"course_id"`
			Status      *string `json:"status"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		updates := map[string]interface{}{}

		if reqData.Title != nil {
			if *reqData.Title == "" || len(*reqData.Title) > 255 {
				errors["title"] = "Title must be between 1 and 255 characters!"
			} else {
				updates["title"] = *reqData.Title
			}
		}
		if reqData.Description != nil {
			updates["description"] = *reqData.Description
		}
		if reqData.CourseID != nil {
			updates["course_id"] = *reqData.CourseID
		}
		if reqData.Status != nil {
			switch *reqData.Status {
			case "UPLOADING", "PROCESSING", "VALID", "ERROR":
				updates["status"] = *reqData.Status
			default:
				errors["status"] = "Invalid package status!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPackageUpdate", updates)
		return c.Next()
	}
}

// CommitTracking validates the commit wire payload
func CommitTracking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CommitRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.PackageID == 0 {
			errors["packageId"] = "Package ID is required!"
		}
		if reqData.LearnerID == 0 {
			errors["learnerId"] = "Learner ID is required!"
		}
		if reqData.AttemptNumber < 0 {
			errors["attemptNumber"] = "Attempt number must be positive!"
		}
		if reqData.Elements == nil {
			errors["elements"] = "Element table is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		if reqData.AttemptNumber == 0 {
			reqData.AttemptNumber = 1
		}

		c.Locals("validatedCommit", reqData)
		return c.Next()
	}
}

// GetTracking validates the tracking query parameters
func GetTracking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errors := make(map[string]string)

		packageID, err := strconv.Atoi(c.Query("package_id"))
		if err != nil || packageID <= 0 {
			errors["package_id"] = "Valid package_id is required!"
		}
		learnerID, err := strconv.Atoi(c.Query("learner_id"))
		if err != nil || learnerID <= 0 {
			errors["learner_id"] = "Valid learner_id is required!"
		}
		attemptNumber := 1
		if attemptStr := c.Query("attempt_number"); attemptStr != "" {
			attemptNumber, err = strconv.Atoi(attemptStr)
			if err != nil || attemptNumber < 1 {
				errors["attempt_number"] = "Attempt number must be greater than 0!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedTrackingQuery", &TrackingQuery{
			PackageID:     uint(packageID),
			LearnerID:     uint(learnerID),
			AttemptNumber: attemptNumber,
		})
		return c.Next()
	}
}

// OpenSession validates the session open payload
func OpenSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(OpenSessionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.PackageID == 0 {
			errors["package_id"] = "Package ID is required!"
		}
		if reqData.LearnerID == 0 {
			errors["learner_id"] = "Learner ID is required!"
		}
		if reqData.AttemptNumber < 0 {
			errors["attempt_number"] = "Attempt number must be positive!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedOpenSession", reqData)
		return c.Next()
	}
}

// RuntimeCall validates one RTE bridge invocation
func RuntimeCall() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RuntimeCallRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Method == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "API method is required!", nil)
		}

		c.Locals("validatedRuntimeCall", reqData)
		return c.Next()
	}
}
