package pathview

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (v *PathViewScreen) View(width, height int) string {
	p := v.path()
	if p == nil {
		if v.loadErr != "" {
			return components.Centered(theme.Incorrect.Render("Could not load the path: "+v.loadErr)+
				"\n\n"+theme.Hint.Render("Press R to retry or Esc to go back."), width, height)
		}
		return components.Centered(theme.Pending.Render("Loading path..."), width, height)
	}

	var b strings.Builder
	b.WriteString(v.renderHeading(p, width))
	b.WriteString("\n\n")

	rows, topics := v.rows()
	cur := v.cursor()

	// Keep the cursor row in view.
	avail := max(height-8, 3)
	start := 0
	if cur >= avail {
		start = cur - avail + 1
	}
	end := min(start+avail, len(rows))
	for i := start; i < end; i++ {
		b.WriteString(v.renderRow(p, topics, rows[i], i == cur))
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(theme.Hint.Render("  No topics yet. Press A to add one."))
		b.WriteString("\n")
	}

	switch v.mode {
	case modeTitle:
		b.WriteString("\n")
		b.WriteString(v.title.View())
		b.WriteString("\n")
	case modeConfirmDelete:
		b.WriteString("\n")
		b.WriteString(theme.Incorrect.Render("  " + v.confirmText() + " (y/n)"))
		b.WriteString("\n")
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(layout.RenderNotice(v.notice, v.noticeErr, width-4))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(width).Height(height).Render(b.String())
}

func (v *PathViewScreen) renderHeading(p *content.Path, width int) string {
	title := theme.Heading.Render(p.DisplayTitle())
	status := theme.StatusColor(string(p.Status)).Render(string(p.Status))
	bar := components.NewProgressBar("Progress", p.Progress.Percentage, min(width/3, 36))

	line := title + "  " + status + "   " + bar.View()
	var extra []string
	if p.Description != "" {
		extra = append(extra, theme.Hint.Width(width-6).Render(p.Description))
	}
	if p.Status == content.StatusDraft {
		extra = append(extra, theme.Warning.Render("Your path is still being generated. It refreshes on its own."))
	}
	if !v.cachedAt.IsZero() {
		extra = append(extra, theme.Pending.Render("Saved copy from "+v.cachedAt.Local().Format("Jan 2 15:04")+", refreshing..."))
	}
	if len(extra) == 0 {
		return line
	}
	return line + "\n" + strings.Join(extra, "\n")
}

func (v *PathViewScreen) renderRow(p *content.Path, topics []content.Topic, r row, active bool) string {
	ctrl := v.deps.Controller
	t := topics[r.topic]
	prefix := "  "
	if active {
		prefix = theme.Selected.Render("▸ ")
	}

	if r.isTopic() {
		arrow := "▸"
		if v.expanded[t.ID] {
			arrow = "▾"
		}
		name := fmt.Sprintf("%s %d. %s", arrow, r.topic+1, t.Name)
		style := theme.Unselected
		if active {
			style = theme.Selected
		}
		meta := fmt.Sprintf("%s · %d min · %d%%", t.Difficulty, t.EstimatedTimeMinutes, t.ProgressPercent())
		badge := ""
		switch {
		case ctrl.TopicJob().Generating(p.ID, t.ID):
			badge = theme.Warning.Render("● generating")
		case engine.IsTemp(t.ID):
			badge = theme.Pending.Render("saving...")
		case !t.ContentGenerated:
			badge = theme.Hint.Render("G to generate content")
		}
		return prefix + style.Render(name) + "  " + theme.Hint.Render(meta) + "  " + badge
	}

	s := t.Submodules[r.sub]
	check := "○"
	if s.Completed {
		check = theme.Correct.Render("✓")
	}
	title := s.Title
	if active {
		title = theme.Selected.Render(title)
	}
	var tags []string
	if n := len(s.Cells); n > 0 {
		tags = append(tags, fmt.Sprintf("%d cells", n))
	}
	switch ctrl.QuizState(t.ID, s.ID) {
	case engine.QuizGenerating:
		tags = append(tags, "quiz generating")
	case engine.QuizReady:
		tags = append(tags, fmt.Sprintf("quiz: %d questions", len(s.MiniQuiz)))
	}
	line := prefix + "    " + check + " " + title
	if len(tags) > 0 {
		line += "  " + theme.Hint.Render(strings.Join(tags, " · "))
	}
	return line
}

func (v *PathViewScreen) confirmText() string {
	topic, sub, ok := v.selection()
	switch {
	case !ok:
		return "Delete?"
	case sub == nil:
		return fmt.Sprintf("Delete topic %q and all of its submodules?", topic.Name)
	}
	return fmt.Sprintf("Delete submodule %q?", sub.Title)
}
