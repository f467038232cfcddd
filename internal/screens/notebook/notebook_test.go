package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/router"
	"github.com/abhisek/cognigen/internal/screen"
	"github.com/abhisek/cognigen/internal/screen/screentest"
	"github.com/abhisek/cognigen/internal/screens/quiz"
)

func openNotebook(t *testing.T, subID string) (*screen.Deps, *api.Mock, *NotebookScreen) {
	t.Helper()
	mock := api.NewMock()
	deps := screentest.Deps(mock, nil)
	deps.Controller.Open(screentest.Path())
	n := New(deps, "t1", subID)
	require.Nil(t, n.Init())
	return deps, mock, n
}

func cellsOf(t *testing.T, deps *screen.Deps, subID string) []content.Cell {
	t.Helper()
	sub, ok := deps.Controller.Tree().Submodule("t1", subID)
	require.True(t, ok)
	return sub.Cells
}

func TestViewRendersCells(t *testing.T) {
	_, _, n := openNotebook(t, "s1")
	assert.Equal(t, "Syntax", n.Title())
	view := n.View(100, 40)
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "https://go.dev")
}

func TestEditAndSave(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")

	screentest.Press(deps, n, "enter")
	require.True(t, n.CapturingInput())
	assert.Equal(t, "# Hello", n.editor.Value())

	n.editor.SetValue("# Hi")
	saved := screentest.Path().Topics[0].Submodules[0].Cells
	saved[0].Markdown = "# Hi"
	mock.Enqueue("EditCell", saved, nil)
	screentest.Press(deps, n, "ctrl+s")

	assert.False(t, n.CapturingInput())
	assert.Equal(t, "# Hi", cellsOf(t, deps, "s1")[0].Markdown)
	call, ok := mock.LastCall("EditCell")
	require.True(t, ok)
	assert.Equal(t, 0, call.Args[1])
	assert.Equal(t, "# Hi", call.Args[2])
}

func TestEditFailureKeepsText(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	screentest.Press(deps, n, "e")
	n.editor.SetValue("# Draft")

	mock.Enqueue("EditCell", nil, &api.Error{Status: 500, Message: "boom"})
	screentest.Press(deps, n, "ctrl+s")

	assert.Equal(t, "# Draft", cellsOf(t, deps, "s1")[0].Markdown)
	assert.Contains(t, n.notice, "Edit cell failed")
}

func TestEscDiscardsDraft(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	screentest.Press(deps, n, "enter")
	n.editor.SetValue("# Nope")
	screentest.Press(deps, n, "esc")

	assert.False(t, n.CapturingInput())
	assert.Equal(t, "# Hello", cellsOf(t, deps, "s1")[0].Markdown)
	assert.Zero(t, mock.CallCount("EditCell"))
}

func TestResourceCellsAreReadOnly(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	screentest.Press(deps, n, "down")
	require.Equal(t, 1, n.cursor)

	screentest.Press(deps, n, "enter")
	assert.False(t, n.CapturingInput())
	assert.Equal(t, "Resource cells cannot be modified.", n.notice)

	screentest.Press(deps, n, "d")
	assert.False(t, n.confirming)
	assert.Zero(t, mock.CallCount("DeleteCell"))
}

func TestInsertBelowCursor(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	echoed := []content.Cell{
		{Type: content.CellMarkdown, Markdown: "# Hello"},
		content.NewMarkdownCell(),
		screentest.Path().Topics[0].Submodules[0].Cells[1],
	}
	mock.Enqueue("AddCell", echoed, nil)

	screentest.Press(deps, n, "a")

	cells := cellsOf(t, deps, "s1")
	require.Len(t, cells, 3)
	assert.Equal(t, content.NewMarkdownCell().Markdown, cells[1].Markdown)
	assert.Equal(t, 1, n.cursor)
	call, ok := mock.LastCall("AddCell")
	require.True(t, ok)
	assert.Equal(t, 1, call.Args[2])
}

func TestAppendToEmptyNotebook(t *testing.T) {
	deps, mock, n := openNotebook(t, "s2")
	mock.Enqueue("AddCell", []content.Cell{content.NewMarkdownCell()}, nil)

	screentest.Press(deps, n, "a")

	assert.Len(t, cellsOf(t, deps, "s2"), 1)
	call, ok := mock.LastCall("AddCell")
	require.True(t, ok)
	assert.Equal(t, 0, call.Args[2])
}

func TestDeleteWithConfirmation(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")

	screentest.Press(deps, n, "d")
	require.True(t, n.confirming)
	screentest.Press(deps, n, "n")
	assert.Len(t, cellsOf(t, deps, "s1"), 2)

	mock.Enqueue("DeleteCell", screentest.Path().Topics[0].Submodules[0].Cells[1:], nil)
	screentest.Press(deps, n, "d")
	screentest.Press(deps, n, "y")

	cells := cellsOf(t, deps, "s1")
	require.Len(t, cells, 1)
	assert.Equal(t, content.CellResource, cells[0].Type)
}

func TestDeleteFailureRestoresCell(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	mock.Enqueue("DeleteCell", nil, &api.Error{Status: 500, Message: "boom"})

	screentest.Press(deps, n, "d")
	screentest.Press(deps, n, "y")

	assert.Len(t, cellsOf(t, deps, "s1"), 2)
	assert.Contains(t, n.notice, "Delete cell failed")
}

func TestStructuralChangeDropsEditor(t *testing.T) {
	deps, mock, n := openNotebook(t, "s1")
	screentest.Press(deps, n, "enter")
	require.True(t, n.editing)

	// Another path to the same cells inserts while the editor is open.
	m, err := deps.Controller.Notebook("t1", "s1").InsertAfter(n.nb.Ref(-1), content.Cell{})
	require.NoError(t, err)
	mock.Enqueue("AddCell", nil, &api.Error{Status: 500, Message: "boom"})
	screentest.Drive(deps, n, deps.Send(m))

	assert.False(t, n.editing)
	assert.Contains(t, n.notice, "draft was discarded")
}

func TestQuizKeyPushesQuiz(t *testing.T) {
	deps, _, n := openNotebook(t, "s1")
	nav, _ := screentest.Press(deps, n, "q")
	push, ok := screentest.Find[router.PushScreenMsg](nav)
	require.True(t, ok)
	_, isQuiz := push.Screen.(*quiz.QuizScreen)
	assert.True(t, isQuiz)
}
