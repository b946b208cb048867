package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statut values
const (
	EnrollmentNotStarted = "NOT_STARTED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentComplete   = "COMPLETE"
)

// Enrollment links a learner to a course and carries the progress record the
// aggregator derives from SCORM tracking. DateDebut and DateFin are set once
// on the first transition into their state and never moved afterwards.
type Enrollment struct {
	gorm.Model
	LearnerID      uint       `json:"learner_id" gorm:"index;not null"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	OrganizationID uint       `json:"organization_id" gorm:"index;not null"`
	Statut         string     `json:"statut" gorm:"default:'NOT_STARTED'"` // NOT_STARTED, IN_PROGRESS, COMPLETE
	Progression    int        `json:"progression" gorm:"default:0"`        // 0-100
	NoteFinale     *float64   `json:"note_finale"`
	DateDebut      *time.Time `json:"date_debut"`
	DateFin        *time.Time `json:"date_fin"`
	IsDeleted      bool       `gorm:"default:false"`
}
