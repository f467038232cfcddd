package topicform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screen/screentest"
)

func TestOutlineRoundTripKeepsSubmodules(t *testing.T) {
	subs := screentest.Path().Topics[0].Submodules
	subs[0].Summary = "keywords and blocks"
	subs[0].Completed = true

	text := FormatOutline(subs)
	assert.Equal(t, "Syntax | keywords and blocks\nTypes", text)

	parsed := ParseOutline("Types | builtin types\n\n  Syntax | keywords and blocks \nGenerics", subs)
	require.Len(t, parsed, 3)
	assert.Equal(t, "s2", parsed[0].ID)
	assert.Equal(t, "builtin types", parsed[0].Summary)
	assert.Equal(t, "s1", parsed[1].ID)
	assert.True(t, parsed[1].Completed)
	assert.Len(t, parsed[1].Cells, 2)
	assert.Empty(t, parsed[2].ID)
	assert.Equal(t, "Generics", parsed[2].Title)
	assert.NotNil(t, parsed[2].Cells)
}

func TestParseOutlineSkipsUntitled(t *testing.T) {
	parsed := ParseOutline(" | only a summary\n   \nReal", nil)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Real", parsed[0].Title)
}

func formDeps(t *testing.T) (*screen.Deps, *api.Mock) {
	t.Helper()
	mock := api.NewMock()
	deps := screentest.Deps(mock, nil)
	deps.Controller.Open(screentest.Path())
	return deps, mock
}

func TestAddTopicAppliesAndPops(t *testing.T) {
	deps, mock := formDeps(t)
	f := New(deps, nil)
	f.Init()
	screentest.Type(f, "Generics")
	f.setFocus(fieldOutline)
	f.outline.SetValue("Type parameters | constraints\nInference")

	saved := content.Topic{ID: "t3", Name: "Generics", Difficulty: content.Medium, EstimatedTimeMinutes: content.DefaultEstimatedMinutes,
		Submodules: []content.Submodule{{ID: "s8", Title: "Type parameters"}, {ID: "s9", Title: "Inference"}}}
	mock.Enqueue("AddTopic", &saved, nil)

	_, cmd := f.Update(screentest.Ctrl('s'))
	msgs := screentest.Run(cmd)
	_, popped := screentest.Find[router.PopScreenMsg](msgs)
	assert.True(t, popped)

	topics := deps.Controller.Tree().Topics()
	require.Len(t, topics, 3)
	assert.True(t, engine.IsTemp(topics[2].ID))

	call, ok := mock.LastCall("AddTopic")
	require.True(t, ok)
	body := call.Args[1].(content.Topic)
	assert.Empty(t, body.ID)
	require.Len(t, body.Submodules, 2)
	assert.Equal(t, "constraints", body.Submodules[0].Summary)

	mutation, ok := screentest.Find[screen.MutationMsg](msgs)
	require.True(t, ok)
	m := deps.Controller.Resolve(mutation.Result)
	assert.Equal(t, engine.PhaseCommitted, m.Phase)
	_, ok = deps.Controller.Tree().Topic("t3")
	assert.True(t, ok)
}

func TestEditTopicPrefillsForm(t *testing.T) {
	deps, mock := formDeps(t)
	topic := screentest.Path().Topics[0]
	f := New(deps, &topic)

	assert.Equal(t, "Edit Topic", f.Title())
	assert.Equal(t, "Syntax\nTypes", f.outline.Value())

	f.outline.SetValue("Types\nSyntax")
	edited := f.Topic()
	assert.Equal(t, "t1", edited.ID)
	require.Len(t, edited.Submodules, 2)
	assert.Equal(t, "s2", edited.Submodules[0].ID)

	mock.Enqueue("UpdateTopic", &edited, nil)
	f.setFocus(fieldSave)
	_, cmd := f.Update(screentest.Key("enter"))
	screentest.Run(cmd)

	got, ok := deps.Controller.Tree().Topic("t1")
	require.True(t, ok)
	assert.Equal(t, "s2", got.Submodules[0].ID)
	assert.Equal(t, 1, mock.CallCount("UpdateTopic"))
}

func TestMissingNameStaysOpen(t *testing.T) {
	deps, mock := formDeps(t)
	f := New(deps, nil)
	f.Init()

	_, cmd := f.Update(screentest.Ctrl('s'))
	assert.Nil(t, cmd)
	assert.Equal(t, "Topic name is required", f.errMsg)
	assert.Len(t, deps.Controller.Tree().Topics(), 2)
	assert.Zero(t, mock.CallCount("AddTopic"))
}

func TestEscPops(t *testing.T) {
	deps, _ := formDeps(t)
	f := New(deps, nil)
	_, cmd := f.Update(screentest.Key("esc"))
	_, popped := screentest.Find[router.PopScreenMsg](screentest.Run(cmd))
	assert.True(t, popped)
}
