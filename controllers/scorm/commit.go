package controllers

import (
	"encoding/json"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	scormModels "lms/models/scorm"
	"lms/scorm"
	scormValidators "lms/validators/scorm"
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommitTracking receives a raw element table from a runtime session and
// persists it. Response shape is the commit wire contract the player parses:
// { ok, trackingId }.
func CommitTracking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false})
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false})
	}

	req := c.Locals("validatedCommit").(*scormValidators.CommitRequest)

	// Cross-organization access is rejected before any write, on every
	// request
	pkg, learner, err := loadCommitTargets(user.OrganizationID, req.PackageID, req.LearnerID, req.EnrollmentID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "message": err.Error()})
	}

	tracking, err := PersistTracking(database.Database.Db, pkg, learner.ID, req.EnrollmentID, req.AttemptNumber, req.Elements)
	if err != nil {
		log.Printf("[SCORM] tracking persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false})
	}

	// Enrollment sync is best-effort: tracking persistence is the commit's
	// primary contract
	if req.EnrollmentID != nil {
		derived := scorm.DeriveTracking(scorm.Version(pkg.Version), req.Elements)
		if err := UpdateEnrollmentProgress(database.Database.Db, *req.EnrollmentID, derived); err != nil {
			log.Printf("[SCORM] enrollment sync failed for enrollment %d: %v", *req.EnrollmentID, err)
		}
	}

	return c.JSON(fiber.Map{"ok": true, "trackingId": tracking.ID})
}

// GetTracking returns the stored raw element table for an attempt so a new
// session can resume from it
func GetTracking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	req := c.Locals("validatedTrackingQuery").(*scormValidators.TrackingQuery)

	var tracking scormModels.ScormTracking
	err := database.Database.Db.
		Where("package_id = ? AND learner_id = ? AND attempt_number = ? AND organization_id = ?",
			req.PackageID, req.LearnerID, req.AttemptNumber, user.OrganizationID).
		First(&tracking).Error
	if err != nil {
		// No tracking yet: a fresh attempt starts from an empty table
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No tracking data yet.", fiber.Map{
			"cmi":           fiber.Map{},
			"is_new_attempt": true,
		})
	}

	var cmi map[string]string
	if len(tracking.CmiData) > 0 {
		if err := json.Unmarshal(tracking.CmiData, &cmi); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to decode tracking data!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tracking data fetched successfully!", fiber.Map{
		"cmi":            cmi,
		"is_new_attempt": false,
		"last_access_at": tracking.LastAccessAt,
		"lesson_status":  tracking.LessonStatus,
	})
}

// loadCommitTargets enforces the commit preconditions: package and learner
// must both exist inside the caller's organization, and when an enrollment is
// named it must belong to the same organization and the same learner. Nothing
// is written until all three checks pass.
func loadCommitTargets(organizationID, packageID, learnerID uint, enrollmentID *uint) (*scormModels.ScormPackage, *models.Learner, error) {
	var pkg scormModels.ScormPackage
	if err := database.Database.Db.
		Where("id = ? AND organization_id = ? AND is_deleted = ?", packageID, organizationID, false).
		First(&pkg).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Package not found")
	}

	var learner models.Learner
	if err := database.Database.Db.
		Where("id = ? AND organization_id = ? AND is_deleted = ?", learnerID, organizationID, false).
		First(&learner).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Learner not found")
	}

	if enrollmentID != nil {
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.
			Where("id = ? AND organization_id = ? AND learner_id = ? AND is_deleted = ?",
				*enrollmentID, organizationID, learner.ID, false).
			First(&enrollment).Error; err != nil {
			return nil, nil, fiber.NewError(fiber.StatusNotFound, "Enrollment not found")
		}
	}
	return &pkg, &learner, nil
}

// PersistTracking upserts the tracking row for (package, learner, attempt).
// The write is a single atomic upsert against the unique key, so concurrent
// commits for the same attempt degrade to last-writer-wins instead of
// corrupting each other. completedAt is sticky: COALESCE keeps the first
// completion time across any number of replays.
func PersistTracking(db *gorm.DB, pkg *scormModels.ScormPackage, learnerID uint, enrollmentID *uint, attemptNumber int, elements map[string]string) (*scormModels.ScormTracking, error) {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	derived := scorm.DeriveTracking(scorm.Version(pkg.Version), elements)

	cmiJSON, err := json.Marshal(elements)
	if err != nil {
		return nil, err
	}
	interactionsJSON, err := json.Marshal(derived.Interactions)
	if err != nil {
		return nil, err
	}
	objectivesJSON, err := json.Marshal(derived.Objectives)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tracking := scormModels.ScormTracking{
		PackageID:        pkg.ID,
		LearnerID:        learnerID,
		AttemptNumber:    attemptNumber,
		EnrollmentID:     enrollmentID,
		OrganizationID:   pkg.OrganizationID,
		CmiData:          cmiJSON,
		LessonStatus:     derived.LessonStatus,
		CompletionStatus: derived.CompletionStatus,
		SuccessStatus:    derived.SuccessStatus,
		ScoreRaw:         derived.ScoreRaw,
		ScoreMin:         derived.ScoreMin,
		ScoreMax:         derived.ScoreMax,
		ScoreScaled:      derived.ScoreScaled,
		TotalTime:        derived.TotalTime,
		SessionTime:      derived.SessionTime,
		SuspendData:      derived.SuspendData,
		LessonLocation:   derived.LessonLocation,
		Entry:            derived.Entry,
		Exit:             derived.Exit,
		Interactions:     interactionsJSON,
		Objectives:       objectivesJSON,
		LastAccessAt:     now,
	}
	if derived.IsComplete() {
		tracking.CompletedAt = &now
	}

	assignments := map[string]interface{}{
		"cmi_data":          cmiJSON,
		"lesson_status":     derived.LessonStatus,
		"completion_status": derived.CompletionStatus,
		"success_status":    derived.SuccessStatus,
		"score_raw":         derived.ScoreRaw,
		"score_min":         derived.ScoreMin,
		"score_max":         derived.ScoreMax,
		"score_scaled":      derived.ScoreScaled,
		"total_time":        derived.TotalTime,
		"session_time":      derived.SessionTime,
		"suspend_data":      derived.SuspendData,
		"lesson_location":   derived.LessonLocation,
		"entry":             derived.Entry,
		"exit":              derived.Exit,
		"interactions":      interactionsJSON,
		"objectives":        objectivesJSON,
		"last_access_at":    now,
		"updated_at":        now,
	}
	if enrollmentID != nil {
		assignments["enrollment_id"] = *enrollmentID
	}
	if derived.IsComplete() {
		assignments["completed_at"] = gorm.Expr("COALESCE(scorm_trackings.completed_at, ?)", now)
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "package_id"},
			{Name: "learner_id"},
			{Name: "attempt_number"},
		},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&tracking).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the stored row, not the insert candidate
	var stored scormModels.ScormTracking
	if err := db.Where("package_id = ? AND learner_id = ? AND attempt_number = ?", pkg.ID, learnerID, attemptNumber).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateEnrollmentProgress folds a tracking derivation into the enrollment
// progress record. Lifecycle dates are monotonic: dateDebut and dateFin are
// set once and never cleared or moved by later commits, and a regressed
// status never downgrades the enrollment.
func UpdateEnrollmentProgress(db *gorm.DB, enrollmentID uint, t *scorm.TrackingData) error {
	var enrollment courseModels.Enrollment
	if err := db.Where("id = ? AND is_deleted = ?", enrollmentID, false).First(&enrollment).Error; err != nil {
		return err
	}

	now := time.Now()
	updates := map[string]interface{}{}

	switch t.LessonStatus {
	case scorm.StatusCompleted, scorm.StatusPassed:
		updates["statut"] = courseModels.EnrollmentComplete
		updates["progression"] = 100
		if enrollment.DateFin == nil {
			updates["date_fin"] = now
		}
	case scorm.StatusIncomplete, scorm.StatusBrowsed:
		updates["statut"] = courseModels.EnrollmentInProgress
		if t.ProgressMeasure != nil {
			updates["progression"] = int(math.Round(*t.ProgressMeasure * 100))
		}
		if enrollment.DateDebut == nil {
			updates["date_debut"] = now
		}
	default:
		// NOT_ATTEMPTED and bare FAILED never regress the enrollment
	}

	if t.ScoreRaw != nil {
		updates["note_finale"] = *t.ScoreRaw
	}

	if len(updates) == 0 {
		return nil
	}
	return db.Model(&enrollment).Updates(updates).Error
}
