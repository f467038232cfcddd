package paths

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
	"github.com/abhisek/cognigen/internal/ui/theme"
)

func (p *PathsScreen) View(width, height int) string {
	var b strings.Builder

	name := "there"
	if u := p.deps.Auth.User(); u != nil && u.Name != "" {
		name = u.Name
	}
	b.WriteString(theme.Title.Width(width).Render(fmt.Sprintf("Hi %s, pick up where you left off", name)))
	b.WriteString("\n\n")

	if job := p.deps.Tracker.Job(); job.Pending() {
		b.WriteString(theme.Warning.Render(fmt.Sprintf("  ● Generating a path for %q...", job.Course())))
		b.WriteString("\n\n")
	}

	list := p.deps.Tracker.Paths()
	switch {
	case len(list) == 0 && p.loading:
		b.WriteString(theme.Pending.Render("  Loading your paths..."))
	case len(list) == 0:
		b.WriteString(theme.Hint.Render("  No learning paths yet. Press N to create one."))
	default:
		cw := min(width-4, 90)
		for i, path := range list {
			b.WriteString(p.renderRow(path, i == p.cursor, cw))
			b.WriteString("\n")
		}
	}

	if p.confirming {
		b.WriteString("\n")
		if path, ok := p.selected(); ok {
			b.WriteString(theme.Incorrect.Render(fmt.Sprintf("  Delete %q? This cannot be undone.", path.DisplayTitle())))
			b.WriteString("\n")
		}
		b.WriteString(p.confirm.View())
		b.WriteString("\n")
	}

	if p.notice != "" {
		b.WriteString("\n")
		b.WriteString(layout.RenderNotice(p.notice, p.noticeErr, width))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(width).Height(height).Render(b.String())
}

func (p *PathsScreen) renderRow(path content.Path, active bool, width int) string {
	prefix := "  "
	title := theme.Unselected.Render(path.DisplayTitle())
	if active {
		prefix = theme.Selected.Render("▸ ")
		title = theme.Selected.Render(path.DisplayTitle())
	}

	status := theme.StatusColor(string(path.Status)).Render(string(path.Status))
	if path.ID == p.deleting {
		status = theme.Pending.Render("deleting...")
	}

	line := prefix + title + "  " + status
	if path.Status == content.StatusDraft {
		return line + "\n    " + theme.Pending.Render("generating content, this can take a few minutes")
	}
	bar := components.NewProgressBar("", path.Progress.Percentage, min(width/3, 30))
	return line + "\n    " + theme.Hint.Render(summary(path)) + "  " + bar.View()
}
