package api

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/cognigen/internal/content"
)

var (
	ExperienceLevels = []string{"beginner", "intermediate", "advanced"}
	Goals            = []string{"placement", "mastery", "revision"}
	LearningStyles   = []string{"theory", "practical", "mixed"}
)

// DefaultHoursPerDay is the time budget when none is chosen.
const DefaultHoursPerDay = 2

// TimeAvailability is the daily study budget.
type TimeAvailability struct {
	PerDayHours int `json:"per_day_hours"`
}

// GenerateParams is the body of POST /learning-paths/generate.
type GenerateParams struct {
	UserID           string           `json:"user_id,omitempty"`
	CourseName       string           `json:"course_name"`
	ExperienceLevel  string           `json:"experience_level"`
	Goal             string           `json:"goal"`
	LearningStyle    string           `json:"preferred_learning_style"`
	TimeAvailability TimeAvailability `json:"time_availability"`
	CustomTopics     []string         `json:"custom_topics"`
}

// Normalize trims and lowercases choices, dedupes custom topics and applies
// the default time budget.
func (p GenerateParams) Normalize() GenerateParams {
	p.CourseName = strings.TrimSpace(p.CourseName)
	p.ExperienceLevel = strings.ToLower(strings.TrimSpace(p.ExperienceLevel))
	p.Goal = strings.ToLower(strings.TrimSpace(p.Goal))
	p.LearningStyle = strings.ToLower(strings.TrimSpace(p.LearningStyle))
	if p.TimeAvailability.PerDayHours <= 0 {
		p.TimeAvailability.PerDayHours = DefaultHoursPerDay
	}
	topics := make([]string, 0, len(p.CustomTopics))
	for _, t := range p.CustomTopics {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(topics, t) {
			topics = append(topics, t)
		}
	}
	p.CustomTopics = topics
	return p
}

// Validate checks a normalized parameter set.
func (p GenerateParams) Validate() error {
	if p.CourseName == "" {
		return &content.ValidationError{Field: "course_name", Reason: "Tell us what you want to learn"}
	}
	if !slices.Contains(ExperienceLevels, p.ExperienceLevel) {
		return &content.ValidationError{Field: "experience_level", Reason: fmt.Sprintf("choose one of %s", strings.Join(ExperienceLevels, ", "))}
	}
	if !slices.Contains(Goals, p.Goal) {
		return &content.ValidationError{Field: "goal", Reason: fmt.Sprintf("choose one of %s", strings.Join(Goals, ", "))}
	}
	if !slices.Contains(LearningStyles, p.LearningStyle) {
		return &content.ValidationError{Field: "preferred_learning_style", Reason: fmt.Sprintf("choose one of %s", strings.Join(LearningStyles, ", "))}
	}
	if h := p.TimeAvailability.PerDayHours; h < 1 || h > 4 {
		return &content.ValidationError{Field: "time_availability", Reason: "per_day_hours must be between 1 and 4"}
	}
	return nil
}
