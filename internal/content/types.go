package content

import (
	"encoding/json"
	"fmt"
	"time"
)

// PathStatus is the server-side lifecycle of a learning path.
type PathStatus string

const (
	StatusDraft     PathStatus = "draft"
	StatusActive    PathStatus = "active"
	StatusCompleted PathStatus = "completed"
)

// Difficulty tags topics and quiz questions.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// DefaultEstimatedMinutes is used when a topic is created without an estimate.
const DefaultEstimatedMinutes = 60

// Progress is the aggregate completion of a path.
type Progress struct {
	Percentage float64 `json:"percentage"`
}

// Path is a personalized curriculum: an ordered list of topics.
type Path struct {
	ID              string     `json:"_id"`
	Title           string     `json:"title"`
	Status          PathStatus `json:"status"`
	CourseName      string     `json:"courseName,omitempty"`
	ExperienceLevel string     `json:"experienceLevel,omitempty"`
	Goal            string     `json:"goal,omitempty"`
	Description     string     `json:"description,omitempty"`
	Topics          []Topic    `json:"topics"`
	Progress        Progress   `json:"progress"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" as the path identity.
func (p *Path) UnmarshalJSON(data []byte) error {
	type alias Path
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Path(raw.alias)
	if p.ID == "" {
		p.ID = raw.AltID
	}
	return nil
}

// DisplayTitle falls back to the course name when the path has no title.
func (p *Path) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.CourseName + " Path"
}

// Topic is a named unit of a path holding at least one submodule.
type Topic struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Difficulty           Difficulty  `json:"difficulty"`
	EstimatedTimeMinutes int         `json:"estimatedTimeMinutes"`
	Submodules           []Submodule `json:"submodules"`
	ContentGenerated     bool        `json:"contentGenerated"`
	CompletedSubmodules  int         `json:"completedSubmodules"`
}

// ProgressPercent is completedSubmodules over submodule count, rounded.
func (t *Topic) ProgressPercent() int {
	if len(t.Submodules) == 0 {
		return 0
	}
	return int(float64(t.CompletedSubmodules)/float64(len(t.Submodules))*100 + 0.5)
}

// Submodule is the smallest schedulable unit: notebook cells plus an optional quiz.
type Submodule struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	Cells     []Cell         `json:"cells"`
	MiniQuiz  []QuizQuestion `json:"miniQuiz,omitempty"`
	Completed bool           `json:"completed"`
}

// HasQuiz reports whether the submodule carries a generated quiz.
func (s *Submodule) HasQuiz() bool {
	return len(s.MiniQuiz) > 0
}

// QuizQuestion is one multiple-choice question. Answer is the option letter ("A", "B", ...).
type QuizQuestion struct {
	Question   string     `json:"question"`
	Options    []string   `json:"options"`
	Answer     string     `json:"answer"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// OptionLetter returns the answer letter for option index i.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// CellType discriminates the cell union.
type CellType string

const (
	CellMarkdown CellType = "markdown"
	CellResource CellType = "resource"
)

// Resource is one external reference inside a resource cell.
type Resource struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Title  string `json:"title"`
}

// IsVideo reports whether the resource points at a video host.
func (r Resource) IsVideo() bool {
	return r.Source == "youtube" || r.Source == "YouTube"
}

// Cell is one notebook block. Exactly one of Markdown or Resources is meaningful,
// selected by Type.
type Cell struct {
	Type      CellType
	Markdown  string
	Resources []Resource
}

// NewMarkdownCell is the cell inserted by "add cell" when no content is given.
func NewMarkdownCell() Cell {
	return Cell{Type: CellMarkdown, Markdown: "# New cell\nStart typing here..."}
}

// Mutable reports whether the client may edit or delete the cell.
func (c Cell) Mutable() bool {
	return c.Type != CellResource
}

type cellWire struct {
	Type    CellType        `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes the cell as {"type": ..., "content": ...}.
func (c Cell) MarshalJSON() ([]byte, error) {
	var body any
	switch c.Type {
	case CellResource:
		res := c.Resources
		if res == nil {
			res = []Resource{}
		}
		body = res
	case CellMarkdown, "":
		body = c.Markdown
	default:
		return nil, fmt.Errorf("unknown cell type %q", c.Type)
	}
	content, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	t := c.Type
	if t == "" {
		t = CellMarkdown
	}
	return json.Marshal(cellWire{Type: t, Content: content})
}

// UnmarshalJSON decodes either cell variant.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var w cellWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case CellResource:
		var res []Resource
		if len(w.Content) > 0 && string(w.Content) != "null" {
			if err := json.Unmarshal(w.Content, &res); err != nil {
				return fmt.Errorf("resource cell content: %w", err)
			}
		}
		*c = Cell{Type: CellResource, Resources: res}
	case CellMarkdown, "":
		var text string
		if len(w.Content) > 0 && string(w.Content) != "null" {
			if err := json.Unmarshal(w.Content, &text); err != nil {
				return fmt.Errorf("markdown cell content: %w", err)
			}
		}
		*c = Cell{Type: CellMarkdown, Markdown: text}
	default:
		return fmt.Errorf("unknown cell type %q", w.Type)
	}
	return nil
}
