package generate

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screen/screentest"
	"github.com/abhisek/cognigen/internal/screens/pathview"
)

func newScreen(t *testing.T) (*screen.Deps, *api.Mock, *GenerateScreen) {
	t.Helper()
	mock := api.NewMock()
	deps := screentest.Deps(mock, &screentest.AuthStub{User: &api.User{ID: "u1"}})
	g := New(deps)
	g.Init()
	return deps, mock, g
}

func TestDefaults(t *testing.T) {
	_, _, g := newScreen(t)
	p := g.Params()
	assert.Equal(t, "beginner", p.ExperienceLevel)
	assert.Equal(t, "mixed", p.LearningStyle)
	assert.Equal(t, api.DefaultHoursPerDay, p.TimeAvailability.PerDayHours)
}

func TestChoicesCycle(t *testing.T) {
	_, _, g := newScreen(t)
	g.setFocus(fieldLevel)
	g.Update(screentest.Key("right"))
	assert.Equal(t, "intermediate", g.Params().ExperienceLevel)
	g.Update(screentest.Key("left"))
	g.Update(screentest.Key("left"))
	assert.Equal(t, "advanced", g.Params().ExperienceLevel)
}

func TestEmptyCourseRejected(t *testing.T) {
	_, mock, g := newScreen(t)
	g.setFocus(fieldSubmit)

	_, cmd := g.Update(screentest.Key("enter"))
	screentest.Run(cmd)

	assert.False(t, g.waiting)
	assert.Equal(t, fieldCourse, g.focus)
	assert.Contains(t, g.errMsg, "Tell us what you want to learn")
	assert.Zero(t, mock.CallCount("GeneratePath"))
}

func TestSuccessReplacesWithPathView(t *testing.T) {
	deps, mock, g := newScreen(t)
	screentest.Type(g, "Go concurrency")
	g.setFocus(fieldTopics)
	screentest.Type(g, "channels, generics, channels")
	g.setFocus(fieldSubmit)

	created := screentest.Path()
	created.ID = "p9"
	mock.Enqueue("GeneratePath", created, nil)
	nav, _ := screentest.Press(deps, g, "enter")

	call, ok := mock.LastCall("GeneratePath")
	require.True(t, ok)
	params := call.Args[0].(api.GenerateParams)
	assert.Equal(t, "Go concurrency", params.CourseName)
	assert.Equal(t, "u1", params.UserID)
	assert.Equal(t, []string{"channels", "generics"}, params.CustomTopics)

	replace, ok := screentest.Find[router.ReplaceScreenMsg](nav)
	require.True(t, ok)
	_, isPathView := replace.Screen.(*pathview.PathViewScreen)
	assert.True(t, isPathView)

	paths := deps.Tracker.Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, "p9", paths[0].ID)
	assert.Equal(t, content.StatusDraft, paths[0].Status)
}

func TestFailureShowsError(t *testing.T) {
	deps, mock, g := newScreen(t)
	screentest.Type(g, "Rust")
	g.setFocus(fieldSubmit)

	mock.Enqueue("GeneratePath", nil, &api.Error{Status: 502, Message: "model unavailable"})
	nav, _ := screentest.Press(deps, g, "enter")

	assert.Empty(t, nav)
	assert.False(t, g.waiting)
	assert.Contains(t, g.errMsg, "model unavailable")
	assert.NoError(t, deps.Tracker.CanGenerate())
}

func TestBackgroundKeepsLock(t *testing.T) {
	deps, mock, g := newScreen(t)
	screentest.Type(g, "Rust")
	g.setFocus(fieldSubmit)

	_, cmd := g.Update(screentest.Key("enter"))
	require.True(t, g.waiting)
	require.True(t, deps.Tracker.Job().Pending())

	_, back := g.Update(screentest.Key("b"))
	msgs := screentest.Run(back)
	_, popped := screentest.Find[router.PopScreenMsg](msgs)
	assert.True(t, popped)
	assert.True(t, deps.Tracker.Job().Background())
	assert.Error(t, deps.Tracker.CanGenerate())

	// The request still lands after the screen is gone.
	mock.Enqueue("GeneratePath", screentest.Path(), nil)
	var result screen.PathGeneratedMsg
	for _, m := range screentest.Run(cmd) {
		if r, ok := m.(screen.PathGeneratedMsg); ok {
			result = r
		}
	}
	id, err := deps.Tracker.ResolvePath(result.Result)
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
	assert.True(t, deps.Tracker.Job().Committed())
}

func TestWaitingIgnoresOtherKeys(t *testing.T) {
	_, _, g := newScreen(t)
	screentest.Type(g, "Rust")
	g.setFocus(fieldSubmit)
	g.Update(screentest.Key("enter"))

	_, cmd := g.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Nil(t, cmd)
	assert.True(t, g.waiting)
}
