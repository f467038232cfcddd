package quiz

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/cognigen/internal/content"
)

// Phase is the quiz session phase.
type Phase int

const (
	PhaseStart    Phase = iota // Start screen, nothing answered
	PhaseQuestion              // Answering questions in shuffled order
	PhaseFinished              // Score shown
)

// AnswerState is the per-question sub-state.
type AnswerState int

const (
	Unanswered AnswerState = iota
	Selected
	SubmittedCorrect
	SubmittedIncorrect
)

// Submitted reports whether the answer has been locked in.
func (a AnswerState) Submitted() bool {
	return a == SubmittedCorrect || a == SubmittedIncorrect
}

var (
	ErrNotStarted  = errors.New("quiz not started")
	ErrNoSelection = errors.New("select an option first")
	ErrSubmitted   = errors.New("answer already submitted")
	ErrBadOption   = errors.New("option out of range")
	ErrEmpty       = errors.New("quiz has no questions")
)

type answer struct {
	selected int
	state    AnswerState
}

// Session presents one quiz. Questions are shuffled once when the session is
// created and keep that order until Restart or a new question set.
type Session struct {
	questions []content.QuizQuestion
	order     []int
	answers   []answer
	current   int
	phase     Phase
	correct   int
	rng       *rand.Rand
}

// NewSession creates a session. rng may be nil for a time-seeded source.
func NewSession(questions []content.QuizQuestion, rng *rand.Rand) *Session {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1|1))
	}
	s := &Session{rng: rng}
	s.reset(questions)
	return s
}

func (s *Session) reset(questions []content.QuizQuestion) {
	s.questions = cloneQuestions(questions)
	s.order = make([]int, len(questions))
	for i := range s.order {
		s.order[i] = i
	}
	s.rng.Shuffle(len(s.order), func(i, j int) { s.order[i], s.order[j] = s.order[j], s.order[i] })
	s.answers = make([]answer, len(questions))
	for i := range s.answers {
		s.answers[i].selected = -1
	}
	s.current = 0
	s.correct = 0
	s.phase = PhaseStart
}

// Sync is called on every render with the submodule's current questions. It
// reshuffles and resets only when the question set changed.
func (s *Session) Sync(questions []content.QuizQuestion) bool {
	if sameQuestions(s.questions, questions) {
		return false
	}
	s.reset(questions)
	return true
}

// Restart reshuffles and clears every answer.
func (s *Session) Restart() {
	s.reset(s.questions)
}

// Start leaves the start screen.
func (s *Session) Start() error {
	if len(s.questions) == 0 {
		return ErrEmpty
	}
	if s.phase == PhaseStart {
		s.phase = PhaseQuestion
	}
	return nil
}

// Phase returns the session phase.
func (s *Session) Phase() Phase { return s.phase }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Index returns the zero-based position of the current question.
func (s *Session) Index() int { return s.current }

// Order returns the presentation order as indices into the original list.
func (s *Session) Order() []int { return slices.Clone(s.order) }

// Current returns the question on screen.
func (s *Session) Current() (content.QuizQuestion, bool) {
	if s.phase != PhaseQuestion {
		return content.QuizQuestion{}, false
	}
	return s.questions[s.order[s.current]], true
}

// Answer returns the state and selected option of the current question.
func (s *Session) Answer() (AnswerState, int) {
	if s.phase != PhaseQuestion {
		return Unanswered, -1
	}
	a := s.answers[s.current]
	return a.state, a.selected
}

// Select picks an option for the current question. Changing the choice is
// allowed until it is submitted.
func (s *Session) Select(option int) error {
	q, ok := s.Current()
	if !ok {
		return ErrNotStarted
	}
	if option < 0 || option >= len(q.Options) {
		return ErrBadOption
	}
	a := &s.answers[s.current]
	if a.state.Submitted() {
		return ErrSubmitted
	}
	a.selected = option
	a.state = Selected
	return nil
}

// Submit locks in the current selection. A second submit is a no-op that
// returns the recorded result; the score counts each question once.
func (s *Session) Submit() (bool, error) {
	q, ok := s.Current()
	if !ok {
		return false, ErrNotStarted
	}
	a := &s.answers[s.current]
	switch a.state {
	case SubmittedCorrect:
		return true, nil
	case SubmittedIncorrect:
		return false, nil
	case Unanswered:
		return false, ErrNoSelection
	}
	if IsCorrect(q, a.selected) {
		a.state = SubmittedCorrect
		s.correct++
		return true, nil
	}
	a.state = SubmittedIncorrect
	return false, nil
}

// Next advances past a submitted question; after the last one the session
// finishes.
func (s *Session) Next() error {
	if s.phase != PhaseQuestion {
		return ErrNotStarted
	}
	if !s.answers[s.current].state.Submitted() {
		return ErrNoSelection
	}
	if s.current == len(s.questions)-1 {
		s.phase = PhaseFinished
		return nil
	}
	s.current++
	return nil
}

// Score returns correct and total counts.
func (s *Session) Score() (int, int) {
	return s.correct, len(s.questions)
}

// Percent returns the score as a percentage.
func (s *Session) Percent() float64 {
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.correct) / float64(len(s.questions)) * 100
}

// Feedback returns the message tier for the score.
func (s *Session) Feedback() string {
	return FeedbackFor(s.Percent())
}

// FeedbackFor maps a percentage to a feedback tier.
func FeedbackFor(pct float64) string {
	switch {
	case pct >= 100:
		return "Perfect! You're a master."
	case pct >= 60:
		return "Well done! Keep it up."
	default:
		return "Good effort, try again!"
	}
}

// IsCorrect reports whether option is the answer of q. The answer is usually
// the option letter; a full option text is accepted too.
func IsCorrect(q content.QuizQuestion, option int) bool {
	if option < 0 || option >= len(q.Options) {
		return false
	}
	want := strings.TrimSpace(q.Answer)
	if strings.EqualFold(want, content.OptionLetter(option)) {
		return true
	}
	return len(want) > 1 && strings.EqualFold(want, strings.TrimSpace(q.Options[option]))
}

func sameQuestions(a, b []content.QuizQuestion) bool {
	return slices.EqualFunc(a, b, func(x, y content.QuizQuestion) bool {
		return x.Question == y.Question && x.Answer == y.Answer && slices.Equal(x.Options, y.Options)
	})
}

func cloneQuestions(qs []content.QuizQuestion) []content.QuizQuestion {
	out := make([]content.QuizQuestion, len(qs))
	for i, q := range qs {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}
