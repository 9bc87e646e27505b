package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lesson is the typed view of a lesson document.
//
// Only the fields the tooling reads are declared here. The document store keeps
// the full JSON object, so unknown fields survive a write-back.
type Lesson struct {
	Title       string     `json:"title,omitempty"       yaml:"title,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Sections    []Section  `json:"sections,omitempty"    yaml:"sections,omitempty"`
	Exercises   []Exercise `json:"exercises,omitempty"   yaml:"exercises,omitempty"`
}

// Section is an ordered group of examples. The first section of a lesson holds
// its setup statements.
type Section struct {
	Title     string    `json:"title,omitempty"      yaml:"title,omitempty"`
	Narrative string    `json:"narrative,omitempty"  yaml:"narrative,omitempty"`
	NerdNotes string    `json:"nerd_notes,omitempty" yaml:"nerd_notes,omitempty"`
	Examples  []Example `json:"examples,omitempty"   yaml:"examples,omitempty"`
}

// Example is one named SQL script.
type Example struct {
	Name        string `json:"name,omitempty"        yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	SQL         string `json:"sql"                   yaml:"sql"`
	NerdNotes   string `json:"nerd_notes,omitempty"  yaml:"nerd_notes,omitempty"`
}

// Exercise is a prompt with its answer query.
type Exercise struct {
	ID        string `json:"id"         yaml:"id"`
	Prompt    string `json:"prompt"     yaml:"prompt"`
	AnswerSQL string `json:"answer_sql" yaml:"answer_sql"`
}

// Status is the outcome of running one example.
type Status int32

const (
	Status_UNSPECIFIED Status = 0
	Status_OK          Status = 1
	Status_SKIPPED     Status = 2
	Status_ERROR       Status = 3
)

func (s Status) String() string {
	switch s {
	case Status_OK:
		return "ok"
	case Status_SKIPPED:
		return "skipped"
	case Status_ERROR:
		return "error"
	default:
		return "unspecified"
	}
}

// ParseStatus converts the textual form back into a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return Status_OK, nil
	case "skipped":
		return Status_SKIPPED, nil
	case "error":
		return Status_ERROR, nil
	case "", "unspecified":
		return Status_UNSPECIFIED, nil
	}
	return Status_UNSPECIFIED, fmt.Errorf("unknown status: %s", s)
}

// MarshalJSON implements json.Marshaler for Status
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Status
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Status
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// ExecutionResult is the outcome of one example.
//
// Status is skipped exactly when the SQL text is blank and error exactly when
// the engine raised. SampleRow is best effort and may be nil on success.
type ExecutionResult struct {
	Name      string `json:"name"                 yaml:"name"`
	Status    Status `json:"status"               yaml:"status"`
	Error     string `json:"error,omitempty"      yaml:"error,omitempty"`
	SampleRow []any  `json:"sample_row,omitempty" yaml:"sample_row,omitempty"`
}

// SectionReport holds the results of one section, in document order.
type SectionReport struct {
	Title    string             `json:"title"    yaml:"title"`
	Examples []*ExecutionResult `json:"examples" yaml:"examples"`
}

// LessonReport holds the results of one lesson, in document order.
type LessonReport struct {
	File     string           `json:"file,omitempty" yaml:"file,omitempty"`
	Title    string           `json:"title"          yaml:"title"`
	Sections []*SectionReport `json:"sections"       yaml:"sections"`
}

// Count returns how many examples of the lesson finished with the given status.
func (r *LessonReport) Count(status Status) int {
	n := 0
	for _, s := range r.Sections {
		for _, ex := range s.Examples {
			if ex.Status == status {
				n++
			}
		}
	}
	return n
}
