package controllers

import (
	"encoding/json"
	"lms/database"
	"lms/middleware"
	"lms/models"
	scormModels "lms/models/scorm"
	"lms/scorm"
	scormValidators "lms/validators/scorm"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Sessions is the live runtime session registry. One entry per open content
// frame; the reaper sweeps entries whose frame went away.
var Sessions = scorm.NewRegistry()

// OpenRuntimeSession installs a runtime session for a content frame about to
// launch. Prior tracking data for the attempt is loaded into the session so
// content resumes where it left off (the entry element derives from it).
func OpenRuntimeSession(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	req := c.Locals("validatedOpenSession").(*scormValidators.OpenSessionRequest)

	pkg, learner, err := loadCommitTargets(user.OrganizationID, req.PackageID, req.LearnerID, req.EnrollmentID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, err.Error(), nil)
	}
	if pkg.Status != scormModels.StatusValid {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Package is not ready to launch!", nil)
	}

	attemptNumber := req.AttemptNumber
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	// Resume data: the raw element table of the last commit, if any
	initialData := map[string]string{}
	var prior scormModels.ScormTracking
	err = database.Database.Db.
		Where("package_id = ? AND learner_id = ? AND attempt_number = ?", pkg.ID, learner.ID, attemptNumber).
		First(&prior).Error
	if err == nil && len(prior.CmiData) > 0 {
		if err := json.Unmarshal(prior.CmiData, &initialData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to decode tracking data!", nil)
		}
	}

	packageRow := *pkg
	enrollmentID := req.EnrollmentID
	sessionID, _ := Sessions.Install(scorm.SessionConfig{
		Version:     scorm.Version(pkg.Version),
		LearnerID:   strconv.FormatUint(uint64(learner.ID), 10),
		LearnerName: learner.FullName(),
		InitialData: initialData,
		Commit: func(elements map[string]string) error {
			_, err := PersistTracking(database.Database.Db, &packageRow, learner.ID, enrollmentID, attemptNumber, elements)
			if err != nil {
				return err
			}
			if enrollmentID != nil {
				derived := scorm.DeriveTracking(scorm.Version(packageRow.Version), elements)
				if err := UpdateEnrollmentProgress(database.Database.Db, *enrollmentID, derived); err != nil {
					log.Printf("[SCORM] enrollment sync failed for enrollment %d: %v", *enrollmentID, err)
				}
			}
			return nil
		},
		OnProgress: func(progress int, status string) {
			log.Printf("[SCORM] package %d learner %d progress %d%% (%s)", packageRow.ID, learner.ID, progress, status)
		},
		OnComplete: func(status string, score *float64) {
			if score != nil {
				log.Printf("[SCORM] package %d learner %d completed: %s score %.2f", packageRow.ID, learner.ID, status, *score)
			} else {
				log.Printf("[SCORM] package %d learner %d completed: %s", packageRow.ID, learner.ID, status)
			}
		},
	})

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session opened successfully!", fiber.Map{
		"session_id": sessionID,
		"launch_url": ContentPath(pkg),
		"version":    pkg.Version,
	})
}

// CallRuntime dispatches one RTE function-table call to a session. Results
// are the protocol's literal strings; protocol errors only ever travel
// through GetLastError, never through HTTP status codes.
func CallRuntime(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	session := Sessions.Lookup(sessionID)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	req := c.Locals("validatedRuntimeCall").(*scormValidators.RuntimeCallRequest)

	var result string
	switch req.Method {
	case "Initialize", "LMSInitialize":
		result = session.Initialize(req.Parameter)
	case "Terminate", "LMSFinish":
		result = session.Terminate(req.Parameter)
	case "GetValue", "LMSGetValue":
		result = session.GetValue(req.Element)
	case "SetValue", "LMSSetValue":
		result = session.SetValue(req.Element, req.Value)
	case "Commit", "LMSCommit":
		result = session.Commit(req.Parameter)
	case "GetLastError", "LMSGetLastError":
		result = session.GetLastError()
	case "GetErrorString", "LMSGetErrorString":
		result = session.GetErrorString(req.Code)
	case "GetDiagnostic", "LMSGetDiagnostic":
		result = session.GetDiagnostic(req.Code)
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown API method!", nil)
	}

	return c.JSON(fiber.Map{"result": result})
}

// CloseRuntimeSession terminates (if still running) and uninstalls a session
// when the hosting view unmounts
func CloseRuntimeSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	session := Sessions.Lookup(sessionID)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	if session.State() == scorm.StateRunning {
		session.Terminate("")
	}
	Sessions.Uninstall(sessionID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session closed successfully!", nil)
}
