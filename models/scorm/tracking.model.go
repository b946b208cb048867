package scorm

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScormTracking is the canonical record of one learner attempt on a package.
// The (package, learner, attempt) key is unique and the commit handler
// upserts against it atomically; CmiData keeps the full raw element table so
// reads and replay stay byte-exact.
type ScormTracking struct {
	gorm.Model
	PackageID      uint  `json:"package_id" gorm:"uniqueIndex:idx_package_learner_attempt;not null"`
	LearnerID      uint  `json:"learner_id" gorm:"uniqueIndex:idx_package_learner_attempt;not null"`
	AttemptNumber  int   `json:"attempt_number" gorm:"uniqueIndex:idx_package_learner_attempt;not null;default:1"`
	EnrollmentID   *uint `json:"enrollment_id" gorm:"index"`
	OrganizationID uint  `json:"organization_id" gorm:"index;not null"`

	CmiData          datatypes.JSON `json:"cmi_data"`
	LessonStatus     string         `json:"lesson_status" gorm:"default:'NOT_ATTEMPTED'"`
	CompletionStatus string         `json:"completion_status"` // SCORM 2004 only
	SuccessStatus    string         `json:"success_status"`    // SCORM 2004 only
	ScoreRaw         *float64       `json:"score_raw"`
	ScoreMin         *float64       `json:"score_min"`
	ScoreMax         *float64       `json:"score_max"`
	ScoreScaled      *float64       `json:"score_scaled"` // SCORM 2004 only
	TotalTime        string         `json:"total_time"`   // dialect-dependent format, stored verbatim
	SessionTime      string         `json:"session_time"`
	SuspendData      string         `json:"suspend_data" gorm:"type:text"`
	LessonLocation   string         `json:"lesson_location"`
	Entry            string         `json:"entry"`
	Exit             string         `json:"exit"`
	Interactions     datatypes.JSON `json:"interactions"`
	Objectives       datatypes.JSON `json:"objectives"`

	CompletedAt  *time.Time `json:"completed_at"` // sticky: set once, never overwritten
	LastAccessAt time.Time  `json:"last_access_at"`
}
