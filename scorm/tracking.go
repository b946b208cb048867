package scorm

import (
	"strconv"
	"strings"
)

// Canonical lesson status values, unified across both dialects
const (
	StatusNotAttempted = "NOT_ATTEMPTED"
	StatusIncomplete   = "INCOMPLETE"
	StatusCompleted    = "COMPLETED"
	StatusPassed       = "PASSED"
	StatusFailed       = "FAILED"
	StatusBrowsed      = "BROWSED"
)

// TrackingData is the version-agnostic view of one learner attempt, derived
// from a raw element table at commit time. The raw table itself is kept
// verbatim alongside so reads and replay stay exact.
type TrackingData struct {
	LessonStatus     string
	CompletionStatus string // SCORM 2004 only
	SuccessStatus    string // SCORM 2004 only
	ScoreRaw         *float64
	ScoreMin         *float64
	ScoreMax         *float64
	ScoreScaled      *float64 // SCORM 2004 only
	TotalTime        string
	SessionTime      string
	SuspendData      string
	LessonLocation   string
	Entry            string
	Exit             string
	ProgressMeasure  *float64
	Interactions     []Interaction
	Objectives       []Objective
}

// IsComplete reports whether the attempt reached a terminal success state
func (t *TrackingData) IsComplete() bool {
	return t.LessonStatus == StatusCompleted || t.LessonStatus == StatusPassed
}

// MapLessonStatus maps a SCORM 1.2 lesson_status value onto the canonical
// enum. Matching is case-insensitive; anything unrecognized or absent is
// treated as not attempted.
func MapLessonStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "passed":
		return StatusPassed
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	case "incomplete":
		return StatusIncomplete
	case "browsed":
		return StatusBrowsed
	default:
		return StatusNotAttempted
	}
}

// DeriveTracking folds a raw element table into the canonical model for the
// given dialect. For SCORM 2004 the success/completion pair takes precedence
// over any single status field: passed/failed win outright, then
// completed/incomplete, then not attempted.
func DeriveTracking(version Version, elements map[string]string) *TrackingData {
	keys := keysFor(version)

	t := &TrackingData{
		TotalTime:      elements[keys.totalTime],
		SessionTime:    elements[keys.sessionTime],
		SuspendData:    elements["cmi.suspend_data"],
		LessonLocation: elements[keys.lessonLocation],
		Entry:          elements[keys.entry],
		Exit:           elements[keys.exit],
		ScoreRaw:       parseFloat(elements[keys.scoreRaw]),
		ScoreMin:       parseFloat(elements[keys.scoreMin]),
		ScoreMax:       parseFloat(elements[keys.scoreMax]),
		Interactions:   ExtractInteractions(elements),
		Objectives:     ExtractObjectives(elements),
	}

	if version == Scorm2004 {
		t.CompletionStatus = elements["cmi.completion_status"]
		t.SuccessStatus = elements["cmi.success_status"]
		t.ScoreScaled = parseFloat(elements["cmi.score.scaled"])
		t.ProgressMeasure = parseFloat(elements["cmi.progress_measure"])

		switch {
		case t.SuccessStatus == "passed":
			t.LessonStatus = StatusPassed
		case t.SuccessStatus == "failed":
			t.LessonStatus = StatusFailed
		case t.CompletionStatus == "completed":
			t.LessonStatus = StatusCompleted
		case t.CompletionStatus == "incomplete":
			t.LessonStatus = StatusIncomplete
		default:
			t.LessonStatus = StatusNotAttempted
		}
	} else {
		t.LessonStatus = MapLessonStatus(elements["cmi.core.lesson_status"])
	}

	return t
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
