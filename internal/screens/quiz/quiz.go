package quiz

import (
	"errors"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	qz "github.com/abhisek/cognigen/internal/quiz"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/ui/layout"
)

// QuizScreen generates and runs the practice quiz of one submodule.
type QuizScreen struct {
	deps    *screen.Deps
	topicID string
	subID   string

	session    *qz.Session
	cursor     int
	confirming bool
	spin       spinner.Model

	notice    string
	noticeErr bool
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.InputCapturer = (*QuizScreen)(nil)

// New creates the quiz screen of a submodule.
func New(deps *screen.Deps, topicID, subID string) *QuizScreen {
	return &QuizScreen{
		deps:    deps,
		topicID: topicID,
		subID:   subID,
		session: qz.NewSession(nil, deps.Rand),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (q *QuizScreen) Init() tea.Cmd {
	q.sync()
	if q.state() == engine.QuizGenerating {
		return q.spin.Tick
	}
	return nil
}

func (q *QuizScreen) Title() string {
	return "Practice Quiz"
}

func (q *QuizScreen) CapturingInput() bool {
	return q.confirming
}

func (q *QuizScreen) KeyHints() []layout.KeyHint {
	if q.confirming {
		return []layout.KeyHint{{Key: "Y", Description: "Delete quiz"}, {Key: "N", Description: "Keep"}}
	}
	switch q.state() {
	case engine.QuizAbsent:
		return []layout.KeyHint{{Key: "G", Description: "Generate quiz"}, {Key: "Esc", Description: "Back"}}
	case engine.QuizGenerating:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	switch q.session.Phase() {
	case qz.PhaseStart:
		return []layout.KeyHint{{Key: "Enter", Description: "Start"}, {Key: "X", Description: "Delete quiz"}, {Key: "Esc", Description: "Back"}}
	case qz.PhaseFinished:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "X", Description: "Delete quiz"}, {Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓/A-D", Description: "Choose"},
		{Key: "Enter", Description: "Submit / Next"},
		{Key: "Esc", Description: "Back"},
	}
}

func (q *QuizScreen) state() engine.QuizState {
	return q.deps.Controller.QuizState(q.topicID, q.subID)
}

func (q *QuizScreen) submodule() (content.Submodule, bool) {
	return q.deps.Controller.Tree().Submodule(q.topicID, q.subID)
}

// sync feeds the submodule's current questions to the session; a new
// question set restarts it.
func (q *QuizScreen) sync() {
	sub, ok := q.submodule()
	if !ok {
		return
	}
	if q.session.Sync(sub.MiniQuiz) {
		q.cursor = 0
	}
}

func (q *QuizScreen) setNotice(msg string, isErr bool) {
	q.notice = msg
	q.noticeErr = isErr
}

func (q *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if q.state() != engine.QuizGenerating {
			return q, nil
		}
		var cmd tea.Cmd
		q.spin, cmd = q.spin.Update(msg)
		return q, cmd

	case screen.ResolvedMsg:
		m := msg.Mutation
		if m.Kind == engine.KindGenerateQuiz && m.Phase == engine.PhaseFailed {
			if screen.Unauthorized(m.Err) {
				return q, screen.SignOut
			}
			q.setNotice("Failed to generate quiz: "+api.Message(m.Err), true)
		}
		if m.Kind == engine.KindGenerateQuiz && m.Phase == engine.PhaseCommitted {
			q.setNotice("Quiz generated!", false)
		}
		q.sync()
		return q, nil

	case tea.KeyPressMsg:
		q.sync()
		if q.confirming {
			q.confirming = false
			if msg.String() == "y" {
				return q, q.deleteQuiz()
			}
			return q, nil
		}
		return q, q.handleKey(msg)
	}
	return q, nil
}

func (q *QuizScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch q.state() {
	case engine.QuizAbsent:
		if key == "g" {
			return q.generate()
		}
		return nil
	case engine.QuizGenerating:
		return nil
	}

	if key == "x" && q.session.Phase() != qz.PhaseQuestion {
		q.confirming = true
		return nil
	}

	switch q.session.Phase() {
	case qz.PhaseStart:
		if key == "enter" {
			if err := q.session.Start(); err != nil {
				q.setNotice(err.Error(), true)
			}
		}
	case qz.PhaseFinished:
		if key == "r" {
			q.session.Restart()
			q.cursor = 0
			q.notice = ""
		}
	case qz.PhaseQuestion:
		q.answerKey(key)
	}
	return nil
}

// answerKey handles choosing, submitting and advancing.
func (q *QuizScreen) answerKey(key string) {
	question, ok := q.session.Current()
	if !ok {
		return
	}
	state, _ := q.session.Answer()
	n := len(question.Options)

	switch {
	case key == "up" || key == "k":
		q.cursor = (q.cursor - 1 + n) % n
	case key == "down" || key == "j":
		q.cursor = (q.cursor + 1) % n
	case len(key) == 1 && strings.Contains("abcdefgh", key):
		opt := int(key[0] - 'a')
		if opt < n && !state.Submitted() {
			q.cursor = opt
			_ = q.session.Select(opt)
		}
	case key == "enter" || key == "space":
		if state.Submitted() {
			_ = q.session.Next()
			q.cursor = 0
			return
		}
		if err := q.session.Select(q.cursor); err != nil && !errors.Is(err, qz.ErrSubmitted) {
			q.setNotice(err.Error(), true)
			return
		}
		if _, err := q.session.Submit(); err != nil {
			q.setNotice(err.Error(), true)
		}
	}
}

func (q *QuizScreen) generate() tea.Cmd {
	m, err := q.deps.Controller.GenerateQuiz(q.topicID, q.subID)
	if err != nil {
		q.setNotice(api.Message(err), true)
		return nil
	}
	q.notice = ""
	return tea.Batch(q.deps.Send(m), q.spin.Tick)
}

func (q *QuizScreen) deleteQuiz() tea.Cmd {
	if err := q.deps.Controller.DeleteQuiz(q.topicID, q.subID); err != nil {
		q.setNotice(api.Message(err), true)
		return nil
	}
	q.sync()
	q.setNotice("Quiz deleted. Press G to generate a new one.", false)
	return nil
}
