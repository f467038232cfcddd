package notebook

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

func (n *NotebookScreen) View(width, height int) string {
	sub, ok := n.submodule()
	if !ok {
		return components.Centered(theme.Hint.Render("This submodule no longer exists. Press Esc to go back."), width, height)
	}

	inner := min(width-4, 100)
	var head strings.Builder
	head.WriteString(theme.Heading.Render(sub.Title))
	if sub.Completed {
		head.WriteString("  " + theme.Correct.Render("✓ completed"))
	}
	if sub.Summary != "" {
		head.WriteString("\n" + theme.Hint.Width(inner).Render(sub.Summary))
	}
	header := head.String()

	footer := ""
	if n.confirming {
		footer = theme.Incorrect.Render("Delete this cell? (y/n)")
	} else if n.notice != "" {
		footer = layout.RenderNotice(n.notice, n.noticeErr, inner)
	}

	cells := n.cells()
	var body strings.Builder
	var cursorLine int
	for i, c := range cells {
		if i == n.cursor {
			cursorLine = lipgloss.Height(body.String())
		}
		body.WriteString(n.renderCell(c, i, inner))
		body.WriteString("\n")
	}
	if len(cells) == 0 {
		body.WriteString(theme.Hint.Render(emptyHint(n.deps.Controller, n.topicID)))
	}

	vpHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer)-3, 3)
	n.vp.SetWidth(inner + 2)
	n.vp.SetHeight(vpHeight)
	n.vp.SetContent(body.String())
	if cursorLine < n.vp.YOffset() || cursorLine >= n.vp.YOffset()+vpHeight {
		n.vp.SetYOffset(cursorLine)
	}

	out := header + "\n\n" + n.vp.View()
	if footer != "" {
		out += "\n" + footer
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(width).Height(height).Render(out)
}

func emptyHint(ctrl *engine.Controller, topicID string) string {
	if t, ok := ctrl.Tree().Topic(topicID); ok && !t.ContentGenerated {
		return "No content yet. Generate the topic's content from the path view, or press A to write your own."
	}
	return "No cells. Press A to add one."
}

func (n *NotebookScreen) renderCell(c content.Cell, i, width int) string {
	box := theme.CellBox
	if i == n.cursor {
		box = theme.CellActive
	}
	box = box.Width(width)

	if c.Type == content.CellResource {
		return box.Render(renderResources(c.Resources))
	}
	if n.editing && i == n.cursor {
		n.editor.SetWidth(width - 4)
		return box.Render(n.editor.View())
	}
	return box.Render(n.markdown.Render(c.Markdown, width-4))
}

func renderResources(res []content.Resource) string {
	var b strings.Builder
	b.WriteString(theme.Heading.Render("Resources"))
	for _, r := range res {
		icon := "📄"
		if r.IsVideo() {
			icon = "▶"
		}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		b.WriteString(fmt.Sprintf("\n%s %s  %s", icon, theme.Body.Render(title), theme.Link.Render(r.URL)))
	}
	if len(res) == 0 {
		b.WriteString("\n" + theme.Hint.Render("No resources."))
	}
	return b.String()
}
