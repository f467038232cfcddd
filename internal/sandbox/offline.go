package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/llm"
)

var errNoBrief = errors.New("offline generation: prompt carries no brief")

// respondOffline answers generation requests without a model, building
// plausible placeholder material from the request brief.
func respondOffline(req llm.Request) (json.RawMessage, error) {
	if req.Schema == nil || len(req.Messages) == 0 {
		return nil, errNoBrief
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	i := strings.LastIndex(prompt, briefMarker)
	if i < 0 {
		return nil, errNoBrief
	}
	raw := []byte(prompt[i+len(briefMarker):])

	var out any
	switch req.Schema.Name {
	case PathSchema.Name:
		var b pathBrief
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("offline generation: %w", err)
		}
		out = offlinePath(b)
	case ContentSchema.Name:
		var b contentBrief
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("offline generation: %w", err)
		}
		out = offlineContent(b)
	case QuizSchema.Name:
		var b quizBrief
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("offline generation: %w", err)
		}
		out = offlineQuiz(b)
	default:
		return nil, fmt.Errorf("offline generation: unknown schema %q", req.Schema.Name)
	}
	return json.Marshal(out)
}

var levelDifficulty = map[string]content.Difficulty{
	"beginner":     content.Easy,
	"intermediate": content.Medium,
	"advanced":     content.Hard,
}

func offlinePath(b pathBrief) map[string]any {
	course := b.CourseName
	names := []string{
		"Introduction to " + course,
		"Core Concepts of " + course,
		course + " in Practice",
	}
	if b.ExperienceLevel != "beginner" {
		names = append(names, "Advanced "+course)
	}
	names = append(names, b.CustomTopics...)

	difficulty := levelDifficulty[b.ExperienceLevel]
	if difficulty == "" {
		difficulty = content.Medium
	}
	minutes := max(b.HoursPerDay, 1) * 30

	topics := make([]map[string]any, len(names))
	for i, name := range names {
		topics[i] = map[string]any{
			"name":              name,
			"difficulty":        difficulty,
			"estimated_minutes": minutes,
			"submodules": []map[string]string{
				{"title": "Foundations of " + name, "summary": "The ideas and vocabulary behind " + name + "."},
				{"title": "Applying " + name, "summary": "Worked examples that put " + name + " to use."},
			},
		}
	}
	return map[string]any{
		"title":       course + " Path",
		"description": fmt.Sprintf("A %s path through %s aimed at %s.", b.ExperienceLevel, course, b.Goal),
		"topics":      topics,
	}
}

func offlineContent(b contentBrief) map[string]any {
	subs := make([]map[string]any, len(b.Submodules))
	for i, s := range b.Submodules {
		subs[i] = map[string]any{
			"id": s.ID,
			"markdown": []string{
				fmt.Sprintf("# %s\n\n%s", s.Title, s.Summary),
				fmt.Sprintf("## Key ideas\n\n- How %s fits into %s\n- Terms to know before moving on\n- A small example to try yourself", s.Title, b.Topic),
			},
			"resources": []content.Resource{
				{
					URL:    "https://www.youtube.com/results?search_query=" + url.QueryEscape(s.Title),
					Source: "youtube",
					Title:  s.Title + " (video search)",
				},
				{
					URL:    "https://en.wikipedia.org/wiki/Special:Search?search=" + url.QueryEscape(b.Topic),
					Source: "web",
					Title:  b.Topic + " on Wikipedia",
				},
			},
		}
	}
	return map[string]any{"submodules": subs}
}

func offlineQuiz(b quizBrief) map[string]any {
	prompts := []string{
		"Which statement best describes %s?",
		"When would you reach for %s?",
		"What is a common mistake with %s?",
	}
	questions := make([]content.QuizQuestion, len(prompts))
	for i, p := range prompts {
		options := []string{
			"An unrelated idea",
			"Something the lesson does not cover",
			"A detail from a different topic",
			"None of these",
		}
		options[i] = "What the lesson on " + b.Title + " explains"
		questions[i] = content.QuizQuestion{
			Question:   fmt.Sprintf(p, b.Title),
			Options:    options,
			Answer:     content.OptionLetter(i),
			Difficulty: content.Easy,
		}
	}
	return map[string]any{"questions": questions}
}
