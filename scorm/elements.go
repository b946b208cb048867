package scorm

import "strings"

// Version identifies which RTE dialect a package was authored against
type Version string

const (
	Scorm12   Version = "SCORM_1_2"
	Scorm2004 Version = "SCORM_2004"
)

// Static _children enumerations the runtime serves for parent elements.
// Content uses these to discover what the data model supports.
var childrenMap = map[string]string{
	"cmi.core._children":               "student_id,student_name,lesson_location,credit,lesson_status,entry,score,total_time,lesson_mode,exit,session_time",
	"cmi.core.score._children":         "raw,min,max",
	"cmi.objectives._children":         "id,score,status",
	"cmi.student_data._children":       "mastery_score,max_time_allowed,time_limit_action",
	"cmi.student_preference._children": "audio,language,speed,text",
	"cmi.interactions._children":       "id,objectives,time,type,correct_responses,weighting,student_response,result,latency",
	"cmi._children":                    "comments_from_learner,comments_from_lms,completion_status,credit,entry,exit,interactions,launch_data,learner_id,learner_name,learner_preference,location,max_time_allowed,mode,objectives,progress_measure,scaled_passing_score,score,session_time,success_status,suspend_data,time_limit_action,total_time",
	"cmi.score._children":              "scaled,raw,min,max",
}

// ChildrenFor returns the children enumeration for a parent element, or ""
func ChildrenFor(element string) string {
	return childrenMap[element]
}

// Elements content must never write: learner identity, credit, mode and entry
// are owned by the host. Writes get error 404.
var readOnlyElements = map[string]bool{
	"cmi.core.student_id":   true,
	"cmi.core.student_name": true,
	"cmi.core.credit":       true,
	"cmi.core.lesson_mode":  true,
	"cmi.core.entry":        true,
	"cmi.learner_id":        true,
	"cmi.learner_name":      true,
	"cmi.credit":            true,
	"cmi.mode":              true,
	"cmi.entry":             true,
}

// IsReadOnly reports whether an element is on the read-only allow-list
func IsReadOnly(element string) bool {
	return readOnlyElements[element]
}

// defaultValue returns the synthesized default for well-known elements that
// have not been set during the session. Unknown elements read as "" with no
// error, which matches how lenient real-world content behaves.
func defaultValue(element string) (string, bool) {
	switch element {
	case "cmi.core.credit", "cmi.credit":
		return "credit", true
	case "cmi.core.lesson_mode", "cmi.mode":
		return "normal", true
	}
	if s, ok := childrenMap[element]; ok {
		return s, true
	}
	return "", false
}

// elementKeys maps the unified tracking fields onto dialect-specific element
// names. The runtime stores raw keys verbatim; only commit-time derivation
// goes through this table.
type elementKeys struct {
	learnerID      string
	learnerName    string
	lessonStatus   string
	lessonLocation string
	scoreRaw       string
	scoreMin       string
	scoreMax       string
	sessionTime    string
	totalTime      string
	entry          string
	exit           string
}

var scorm12Keys = elementKeys{
	learnerID:      "cmi.core.student_id",
	learnerName:    "cmi.core.student_name",
	lessonStatus:   "cmi.core.lesson_status",
	lessonLocation: "cmi.core.lesson_location",
	scoreRaw:       "cmi.core.score.raw",
	scoreMin:       "cmi.core.score.min",
	scoreMax:       "cmi.core.score.max",
	sessionTime:    "cmi.core.session_time",
	totalTime:      "cmi.core.total_time",
	entry:          "cmi.core.entry",
	exit:           "cmi.core.exit",
}

var scorm2004Keys = elementKeys{
	learnerID:      "cmi.learner_id",
	learnerName:    "cmi.learner_name",
	lessonStatus:   "cmi.completion_status",
	lessonLocation: "cmi.location",
	scoreRaw:       "cmi.score.raw",
	scoreMin:       "cmi.score.min",
	scoreMax:       "cmi.score.max",
	sessionTime:    "cmi.session_time",
	totalTime:      "cmi.total_time",
	entry:          "cmi.entry",
	exit:           "cmi.exit",
}

func keysFor(version Version) elementKeys {
	if version == Scorm2004 {
		return scorm2004Keys
	}
	return scorm12Keys
}

// statusElements are the writes that trigger the host progress callback
func isStatusElement(element string) bool {
	return element == "cmi.core.lesson_status" || element == "cmi.completion_status"
}

// countPrefix extracts the collection prefix from a _count query, e.g.
// "cmi.interactions._count" -> "cmi.interactions". Returns false for
// non-count elements.
func countPrefix(element string) (string, bool) {
	if !strings.HasSuffix(element, "._count") {
		return "", false
	}
	return strings.TrimSuffix(element, "._count"), true
}
