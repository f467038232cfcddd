package generate

import (
	"errors"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screens/pathview"
	"github.com/abhisek/cognigen/internal/ui/components"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

const (
	fieldCourse = iota
	fieldLevel
	fieldGoal
	fieldStyle
	fieldHours
	fieldTopics
	fieldSubmit
	fieldCount
)

var hourOptions = []string{"1", "2", "3", "4"}

// GenerateScreen collects the path generation parameters and waits for the
// outline. The wait can be sent to the background; the generation lock stays
// held until the response arrives.
type GenerateScreen struct {
	deps *screen.Deps

	course  components.TextInput
	topics  components.TextInput
	choices map[int]*components.Choice
	submit  components.Button
	focus   int

	waiting bool
	spin    spinner.Model
	errMsg  string
}

var _ screen.Screen = (*GenerateScreen)(nil)
var _ screen.KeyHintProvider = (*GenerateScreen)(nil)
var _ screen.InputCapturer = (*GenerateScreen)(nil)

// New creates the wizard with the defaults preselected.
func New(deps *screen.Deps) *GenerateScreen {
	level := components.NewChoice("Experience level", api.ExperienceLevels)
	goal := components.NewChoice("Goal", api.Goals)
	style := components.NewChoice("Preferred learning style", api.LearningStyles)
	style.Select("mixed")
	hours := components.NewChoice("Hours per day", hourOptions)
	hours.Select(strconv.Itoa(api.DefaultHoursPerDay))

	return &GenerateScreen{
		deps:   deps,
		course: components.NewTextInput("What do you want to learn?", "e.g. Go concurrency", 120),
		topics: components.NewTextInput("Topics to include (comma separated, optional)", "channels, generics", 400),
		choices: map[int]*components.Choice{
			fieldLevel: &level,
			fieldGoal:  &goal,
			fieldStyle: &style,
			fieldHours: &hours,
		},
		submit: components.NewButton("Generate path"),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (g *GenerateScreen) Init() tea.Cmd {
	return g.course.Focus()
}

func (g *GenerateScreen) Title() string {
	return "New Learning Path"
}

// CapturingInput is always true; Esc is handled here so the wait can be
// backgrounded instead of abandoned.
func (g *GenerateScreen) CapturingInput() bool {
	return true
}

func (g *GenerateScreen) KeyHints() []layout.KeyHint {
	if g.waiting {
		return []layout.KeyHint{
			{Key: "B", Description: "Continue in background"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next"},
		{Key: "←→", Description: "Choose"},
		{Key: "Enter", Description: "Generate"},
		{Key: "Esc", Description: "Back"},
	}
}

// Params builds the request from the form.
func (g *GenerateScreen) Params() api.GenerateParams {
	hours, _ := strconv.Atoi(g.choices[fieldHours].Value())
	return api.GenerateParams{
		UserID:           g.deps.Auth.UserID(),
		CourseName:       g.course.Value(),
		ExperienceLevel:  g.choices[fieldLevel].Value(),
		Goal:             g.choices[fieldGoal].Value(),
		LearningStyle:    g.choices[fieldStyle].Value(),
		TimeAvailability: api.TimeAvailability{PerDayHours: hours},
		CustomTopics:     strings.Split(g.topics.Value(), ","),
	}
}

func (g *GenerateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !g.waiting {
			return g, nil
		}
		var cmd tea.Cmd
		g.spin, cmd = g.spin.Update(msg)
		return g, cmd

	case screen.PathReadyMsg:
		g.waiting = false
		if msg.Err != nil {
			if screen.Unauthorized(msg.Err) {
				return g, screen.SignOut
			}
			g.errMsg = "Failed to generate the path: " + api.Message(msg.Err)
			return g, g.setFocus(fieldSubmit)
		}
		return g, router.Cmd(router.ReplaceScreenMsg{Screen: pathview.New(g.deps, msg.ID)})

	case tea.KeyPressMsg:
		if g.waiting {
			if k := msg.String(); k == "b" || k == "esc" {
				if err := g.deps.Tracker.Background(); err != nil {
					g.deps.Logger().Warn("background path generation", "error", err)
				}
				return g, router.Cmd(router.PopScreenMsg{})
			}
			return g, nil
		}
		return g, g.handleKey(msg)
	}
	return g, nil
}

func (g *GenerateScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return router.Cmd(router.PopScreenMsg{})
	case "tab", "down":
		return g.setFocus((g.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return g.setFocus((g.focus - 1 + fieldCount) % fieldCount)
	case "enter":
		if g.focus == fieldSubmit {
			return g.start()
		}
		return g.setFocus(g.focus + 1)
	}

	var cmd tea.Cmd
	switch g.focus {
	case fieldCourse:
		g.course, cmd = g.course.Update(msg)
	case fieldTopics:
		g.topics, cmd = g.topics.Update(msg)
	case fieldSubmit:
	default:
		c := g.choices[g.focus]
		*c, cmd = c.Update(msg)
	}
	return cmd
}

func (g *GenerateScreen) setFocus(i int) tea.Cmd {
	g.course.Blur()
	g.topics.Blur()
	for _, c := range g.choices {
		c.Focused = false
	}
	g.submit.Focused = false

	g.focus = i
	switch i {
	case fieldCourse:
		return g.course.Focus()
	case fieldTopics:
		return g.topics.Focus()
	case fieldSubmit:
		g.submit.Focused = true
	default:
		g.choices[i].Focused = true
	}
	return nil
}

func (g *GenerateScreen) start() tea.Cmd {
	req, err := g.deps.Tracker.RequestPath(g.Params())
	if err != nil {
		g.errMsg = api.Message(err)
		var verr *content.ValidationError
		if errors.As(err, &verr) && verr.Field == "course_name" {
			return g.setFocus(fieldCourse)
		}
		return nil
	}
	g.errMsg = ""
	g.waiting = true
	g.deps.Logger().Info("path generation requested", "course", req.Params.CourseName)
	return tea.Batch(g.deps.GeneratePath(req), g.spin.Tick)
}
