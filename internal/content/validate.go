package content

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError is a local input failure. It is raised before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateTitle checks a path title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "Title is required")
	}
	return nil
}

// ValidateTopic checks a topic before it is sent upstream. Submodules may be
// empty here; NormalizeTopic fills in the placeholder.
func ValidateTopic(t Topic) error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name", "Topic name is required")
	}
	if t.Difficulty != "" && !t.Difficulty.Valid() {
		return invalid("difficulty", fmt.Sprintf("unknown difficulty %q", t.Difficulty))
	}
	if t.EstimatedTimeMinutes < 0 {
		return invalid("estimatedTimeMinutes", "must not be negative")
	}
	for i, s := range t.Submodules {
		if strings.TrimSpace(s.Title) == "" {
			return invalid(fmt.Sprintf("submodules[%d].title", i), "Submodule title is required")
		}
	}
	return nil
}

// PlaceholderSubmodule is synthesized when a topic would otherwise have no submodules.
func PlaceholderSubmodule(topicName string) Submodule {
	name := strings.TrimSpace(topicName)
	title := name
	if title == "" {
		title = "Default Submodule"
	}
	if name == "" {
		name = "Topic"
	}
	return Submodule{
		ID:      uuid.NewString(),
		Title:   title,
		Summary: fmt.Sprintf("Default submodule for \"%s\"", name),
		Cells:   []Cell{},
	}
}

// NormalizeTopic applies defaults and the at-least-one-submodule invariant.
// The input is not modified.
func NormalizeTopic(t Topic) Topic {
	t = t.Clone()
	t.Name = strings.TrimSpace(t.Name)
	if t.Difficulty == "" {
		t.Difficulty = Medium
	}
	if t.EstimatedTimeMinutes == 0 {
		t.EstimatedTimeMinutes = DefaultEstimatedMinutes
	}
	for i := range t.Submodules {
		if t.Submodules[i].ID == "" {
			t.Submodules[i].ID = uuid.NewString()
		}
		if t.Submodules[i].Cells == nil {
			t.Submodules[i].Cells = []Cell{}
		}
	}
	if len(t.Submodules) == 0 {
		t.Submodules = []Submodule{PlaceholderSubmodule(t.Name)}
	}
	t.CompletedSubmodules = countCompleted(t.Submodules)
	return t
}

// RemoveSubmodule returns a copy of t without the submodule id, keeping the
// invariant: removing the last one leaves a placeholder titled after the topic.
func RemoveSubmodule(t Topic, subID string) (Topic, bool) {
	idx := -1
	for i, s := range t.Submodules {
		if s.ID == subID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t, false
	}
	out := t.Clone()
	out.Submodules = append(out.Submodules[:idx], out.Submodules[idx+1:]...)
	if len(out.Submodules) == 0 {
		out.Submodules = []Submodule{PlaceholderSubmodule(out.Name)}
	}
	out.CompletedSubmodules = countCompleted(out.Submodules)
	return out, true
}

func countCompleted(ss []Submodule) int {
	n := 0
	for _, s := range ss {
		if s.Completed {
			n++
		}
	}
	return n
}
