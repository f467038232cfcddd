package topicform

import (
	"strings"

	"github.com/abhisek/cognigen/internal/content"
)

// outlineSep splits a submodule line into title and summary.
const outlineSep = " | "

// FormatOutline writes one submodule per line as "title | summary".
func FormatOutline(subs []content.Submodule) string {
	lines := make([]string, len(subs))
	for i, s := range subs {
		lines[i] = s.Title
		if s.Summary != "" {
			lines[i] += outlineSep + s.Summary
		}
	}
	return strings.Join(lines, "\n")
}

// ParseOutline reads the submodule lines back. A line whose title matches an
// existing submodule keeps that submodule's id, cells, quiz and completion;
// other lines become new submodules. Blank lines are skipped.
func ParseOutline(text string, existing []content.Submodule) []content.Submodule {
	byTitle := make(map[string]content.Submodule, len(existing))
	for _, s := range existing {
		if _, dup := byTitle[s.Title]; !dup {
			byTitle[s.Title] = s
		}
	}

	var out []content.Submodule
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		title, summary, _ := strings.Cut(line, "|")
		title = strings.TrimSpace(title)
		summary = strings.TrimSpace(summary)
		if title == "" {
			continue
		}
		if prev, ok := byTitle[title]; ok {
			delete(byTitle, title)
			prev = prev.Clone()
			prev.Summary = summary
			out = append(out, prev)
			continue
		}
		out = append(out, content.Submodule{Title: title, Summary: summary, Cells: []content.Cell{}})
	}
	return out
}
