package scorm

import "fmt"

// Interaction is one entry of the cmi interactions collection
type Interaction struct {
	ID              string `json:"id"`
	Type            string `json:"type,omitempty"`
	Description     string `json:"description,omitempty"`
	Weighting       string `json:"weighting,omitempty"`
	LearnerResponse string `json:"learnerResponse,omitempty"`
	Result          string `json:"result,omitempty"`
	Latency         string `json:"latency,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// Objective is one entry of the cmi objectives collection
type Objective struct {
	ID               string `json:"id"`
	SuccessStatus    string `json:"successStatus,omitempty"`
	CompletionStatus string `json:"completionStatus,omitempty"`
	ProgressMeasure  string `json:"progressMeasure,omitempty"`
	ScoreScaled      string `json:"scoreScaled,omitempty"`
	ScoreRaw         string `json:"scoreRaw,omitempty"`
	ScoreMin         string `json:"scoreMin,omitempty"`
	ScoreMax         string `json:"scoreMax,omitempty"`
}

// collectionCount scans increasing indices under prefix and returns how many
// consecutive entries declare an id. The first index with no id field ends
// the collection; later stray indices are not part of it. Content asking for
// "_count" gets this number, never a stored value.
func collectionCount(prefix string, elements map[string]string) int {
	n := 0
	for {
		if _, ok := elements[fmt.Sprintf("%s.%d.id", prefix, n)]; !ok {
			return n
		}
		n++
	}
}

// ExtractInteractions pulls the interactions collection out of a raw element
// table. The key prefix is the same in both dialects; only the response field
// name differs (learner_response vs student_response).
func ExtractInteractions(elements map[string]string) []Interaction {
	var interactions []Interaction
	for i := 0; ; i++ {
		id, ok := elements[fmt.Sprintf("cmi.interactions.%d.id", i)]
		if !ok {
			break
		}
		field := func(name string) string {
			return elements[fmt.Sprintf("cmi.interactions.%d.%s", i, name)]
		}
		response := field("learner_response")
		if response == "" {
			response = field("student_response")
		}
		interactions = append(interactions, Interaction{
			ID:              id,
			Type:            field("type"),
			Description:     field("description"),
			Weighting:       field("weighting"),
			LearnerResponse: response,
			Result:          field("result"),
			Latency:         field("latency"),
			Timestamp:       field("timestamp"),
		})
	}
	return interactions
}

// ExtractObjectives pulls the objectives collection out of a raw element table
func ExtractObjectives(elements map[string]string) []Objective {
	var objectives []Objective
	for i := 0; ; i++ {
		id, ok := elements[fmt.Sprintf("cmi.objectives.%d.id", i)]
		if !ok {
			break
		}
		field := func(name string) string {
			return elements[fmt.Sprintf("cmi.objectives.%d.%s", i, name)]
		}
		objectives = append(objectives, Objective{
			ID:               id,
			SuccessStatus:    field("success_status"),
			CompletionStatus: field("completion_status"),
			ProgressMeasure:  field("progress_measure"),
			ScoreScaled:      field("score.scaled"),
			ScoreRaw:         field("score.raw"),
			ScoreMin:         field("score.min"),
			ScoreMax:         field("score.max"),
		})
	}
	return objectives
}
