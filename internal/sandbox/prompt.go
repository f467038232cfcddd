package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"
)

const briefMarker = "Brief:\n"

const pathSystemPrompt = `You are a curriculum designer. You turn a learner's goal into a short, ordered study plan of topics that build on each other.`

const contentSystemPrompt = `You are a patient technical tutor writing study notebooks. Write clear markdown, one idea per cell, with small examples where they help.`

const quizSystemPrompt = `You write short multiple-choice quizzes that check understanding of one lesson. Every question has exactly one correct option.`

type pathBrief struct {
	CourseName      string   `json:"course_name"`
	ExperienceLevel string   `json:"experience_level"`
	Goal            string   `json:"goal"`
	LearningStyle   string   `json:"learning_style"`
	HoursPerDay     int      `json:"hours_per_day"`
	CustomTopics    []string `json:"custom_topics"`
}

type contentBrief struct {
	Path       string         `json:"path"`
	Topic      string         `json:"topic"`
	Submodules []outlineBrief `json:"submodules"`
}

type outlineBrief struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type quizBrief struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Notes   string `json:"notes"`
}

func buildPathMessage(b pathBrief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Design a learning path for %q.\n", b.CourseName)
	fmt.Fprintf(&sb, "The learner is %s, studies about %d hours per day and prefers %s material.\n",
		b.ExperienceLevel, b.HoursPerDay, b.LearningStyle)
	fmt.Fprintf(&sb, "Their goal is %s.\n", b.Goal)
	if len(b.CustomTopics) > 0 {
		fmt.Fprintf(&sb, "Include these topics: %s.\n", strings.Join(b.CustomTopics, ", "))
	}
	sb.WriteString(`
Instructions:
1. Order topics so each one builds on the previous ones.
2. Give every topic 2-4 submodules with a one sentence summary each.
3. Estimate minutes per topic from the daily study budget.
`)
	return withBrief(&sb, b)
}

func buildContentMessage(b contentBrief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write notebook content for the topic %q of the path %q.\n", b.Topic, b.Path)
	sb.WriteString(`
Instructions:
1. Answer with one entry per submodule in the brief, echoing its id.
2. Write 2-4 markdown cells per submodule, starting with a heading.
3. Suggest up to 3 resources per submodule. Use "youtube" or "web" as the source.
`)
	return withBrief(&sb, b)
}

func buildQuizMessage(b quizBrief) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a quiz for the lesson %q.\n", b.Title)
	sb.WriteString(`
Instructions:
1. Write 3 questions with 4 options each.
2. The answer is the letter of the correct option.
3. Base every question on the lesson notes.
`)
	return withBrief(&sb, b)
}

// withBrief appends the machine-readable brief the prompt was built from.
func withBrief(sb *strings.Builder, brief any) string {
	data, _ := json.Marshal(brief)
	sb.WriteString("\n")
	sb.WriteString(briefMarker)
	sb.Write(data)
	return sb.String()
}
