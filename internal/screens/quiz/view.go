package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/engine"
	qz "github.com/abhisek/cognigen/internal/quiz"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (q *QuizScreen) View(width, height int) string {
	sub, ok := q.submodule()
	if !ok {
		return components.Centered(theme.Hint.Render("This submodule no longer exists. Press Esc to go back."), width, height)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Heading.Render(sub.Title))
	b.WriteString("\n\n")

	switch q.state() {
	case engine.QuizAbsent:
		b.WriteString(theme.Body.Render("No quiz for this submodule yet."))
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Press G to generate a short practice quiz."))
	case engine.QuizGenerating:
		b.WriteString(q.spin.View() + " " + theme.Pending.Render("Generating quiz..."))
	default:
		b.WriteString(q.renderSession(cw - 6))
	}

	if q.confirming {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render("Delete this quiz? You can generate a new one afterwards. (y/n)"))
	} else if q.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.RenderNotice(q.notice, q.noticeErr, cw-6))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, components.Card(b.String(), cw))
}

func (q *QuizScreen) renderSession(width int) string {
	s := q.session
	switch s.Phase() {
	case qz.PhaseStart:
		return theme.Body.Render(fmt.Sprintf("%d questions. Take your time, the score is shown at the end.", s.Len())) +
			"\n\n" + theme.ButtonActive.Render("▸ Start quiz")
	case qz.PhaseFinished:
		correct, total := s.Score()
		bar := components.NewProgressBar("Score", s.Percent(), width)
		return theme.Title.Render(fmt.Sprintf("%d / %d correct", correct, total)) +
			"\n\n" + bar.View() +
			"\n\n" + theme.Body.Render(s.Feedback())
	}

	question, _ := s.Current()
	state, selected := s.Answer()
	correct := -1
	for i := range question.Options {
		if qz.IsCorrect(question, i) {
			correct = i
		}
	}
	mc := components.MultiChoice{
		Question: question.Question,
		Options:  question.Options,
		Cursor:   q.cursor,
		Chosen:   selected,
		Revealed: state.Submitted(),
		Correct:  correct,
	}

	var b strings.Builder
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Question %d of %d", s.Index()+1, s.Len())))
	if question.Difficulty != "" {
		b.WriteString(theme.Hint.Render(" · " + string(question.Difficulty)))
	}
	b.WriteString("\n\n")
	b.WriteString(mc.View(width))
	switch state {
	case qz.SubmittedCorrect:
		b.WriteString("\n" + theme.Correct.Render("✓ Correct!"))
	case qz.SubmittedIncorrect:
		b.WriteString("\n" + theme.Incorrect.Render("✗ Not quite."))
	}
	if state.Submitted() {
		next := "Next question"
		if s.Index() == s.Len()-1 {
			next = "See results"
		}
		b.WriteString("\n" + theme.Hint.Render("Enter: "+next))
	}
	return b.String()
}
