package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePath() *Path {
	return &Path{
		ID:     "p1",
		Title:  "Go",
		Status: StatusActive,
		Topics: []Topic{
			{
				ID: "t1", Name: "Basics", Difficulty: Medium, EstimatedTimeMinutes: 60,
				Submodules: []Submodule{
					{ID: "s1", Title: "Syntax", Cells: []Cell{NewMarkdownCell()}},
					{ID: "s2", Title: "Types", Cells: []Cell{{Type: CellResource, Resources: []Resource{{URL: "u", Source: "youtube", Title: "v"}}}}},
				},
			},
			{ID: "t2", Name: "Concurrency", Difficulty: Hard, Submodules: []Submodule{{ID: "s3", Title: "Goroutines"}}},
		},
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 0, []string{"d", "a", "b", "c"}},
		{"adjacent", 1, 2, []string{"a", "c", "b", "d"}},
		{"same", 2, 2, []string{"a", "b", "c", "d"}},
		{"last", 0, 3, []string{"b", "c", "d", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"a", "b", "c", "d"}
			got, err := Move(in, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"a", "b", "c", "d"}, in, "input must not change")
		})
	}

	_, err := Move([]string{"a"}, 0, 1)
	assert.Error(t, err)
	_, err = Move([]string{"a"}, -1, 0)
	assert.Error(t, err)
}

func TestIsPermutation(t *testing.T) {
	cur := []string{"a", "b", "c"}
	assert.True(t, IsPermutation(cur, []string{"c", "a", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "a", "b"}))
	assert.False(t, IsPermutation(cur, []string{"a", "b", "x"}))
}

func TestTreeSnapshotDoesNotAlias(t *testing.T) {
	tr := NewTree()
	assert.False(t, tr.Loaded())
	assert.Nil(t, tr.Snapshot())

	src := samplePath()
	tr.Load(src)
	src.Topics[0].Name = "mutated"
	snap := tr.Snapshot()
	assert.Equal(t, "Basics", snap.Topics[0].Name)

	snap.Topics[0].Submodules[0].Cells[0].Markdown = "changed"
	snap.Topics[0].Submodules[1].Cells[0].Resources[0].Title = "changed"
	again := tr.Snapshot()
	assert.Equal(t, NewMarkdownCell().Markdown, again.Topics[0].Submodules[0].Cells[0].Markdown)
	assert.Equal(t, "v", again.Topics[0].Submodules[1].Cells[0].Resources[0].Title)
}

func TestTreePatchByIdentity(t *testing.T) {
	tr := NewTree()
	tr.Load(samplePath())

	tp, ok := tr.Topic("t2")
	require.True(t, ok)
	tp.Name = "Channels"
	assert.True(t, tr.PatchTopic(tp))
	got, _ := tr.Topic("t2")
	assert.Equal(t, "Channels", got.Name)
	first, _ := tr.Topic("t1")
	assert.Equal(t, "Basics", first.Name, "siblings untouched")

	assert.False(t, tr.PatchTopic(Topic{ID: "gone", Name: "x"}))
	assert.Equal(t, []string{"t1", "t2"}, tr.TopicIDs(), "missing identity is a no-op")

	sub, ok := tr.Submodule("t1", "s2")
	require.True(t, ok)
	sub.Completed = true
	assert.True(t, tr.PatchSubmodule("t1", sub))
	basics, _ := tr.Topic("t1")
	assert.Equal(t, 1, basics.CompletedSubmodules)
	assert.Equal(t, 50, basics.ProgressPercent())

	assert.False(t, tr.PatchSubmodule("t1", Submodule{ID: "nope"}))
	assert.False(t, tr.PatchSubmodule("nope", sub))
}

func TestTreeInsertRemoveTopic(t *testing.T) {
	tr := NewTree()
	tr.Load(samplePath())

	tr.InsertTopic(1, Topic{ID: "t3", Name: "Middle"})
	assert.Equal(t, []string{"t1", "t3", "t2"}, tr.TopicIDs())
	tr.InsertTopic(99, Topic{ID: "t4", Name: "End"})
	assert.Equal(t, []string{"t1", "t3", "t2", "t4"}, tr.TopicIDs())

	removed, at, ok := tr.RemoveTopic("t3")
	require.True(t, ok)
	assert.Equal(t, 1, at)
	assert.Equal(t, "Middle", removed.Name)
	assert.Equal(t, []string{"t1", "t2", "t4"}, tr.TopicIDs())

	_, _, ok = tr.RemoveTopic("t3")
	assert.False(t, ok)
}

func TestRemoveSubmoduleKeepsPlaceholder(t *testing.T) {
	tp := samplePath().Topics[0]

	tp, ok := RemoveSubmodule(tp, "s1")
	require.True(t, ok)
	require.Len(t, tp.Submodules, 1)

	tp, ok = RemoveSubmodule(tp, "s2")
	require.True(t, ok)
	require.Len(t, tp.Submodules, 1)
	assert.Equal(t, "Basics", tp.Submodules[0].Title)
	assert.Equal(t, `Default submodule for "Basics"`, tp.Submodules[0].Summary)
	assert.NotEmpty(t, tp.Submodules[0].ID)

	_, ok = RemoveSubmodule(tp, "missing")
	assert.False(t, ok)
}

func TestInstalledTopicsKeepOneSubmodule(t *testing.T) {
	p := samplePath()
	p.Topics = append(p.Topics, Topic{ID: "t3", Name: "Empty"})
	tr := NewTree()
	tr.Load(p)

	loaded, _ := tr.Topic("t3")
	require.Len(t, loaded.Submodules, 1, "Load")
	assert.Equal(t, "Empty", loaded.Submodules[0].Title)
	assert.Empty(t, p.Topics[2].Submodules, "input untouched")

	assert.True(t, tr.PatchTopic(Topic{ID: "t2", Name: "Concurrency"}))
	patched, _ := tr.Topic("t2")
	require.Len(t, patched.Submodules, 1, "PatchTopic")
	assert.Equal(t, 0, patched.CompletedSubmodules)

	tr.InsertTopic(0, Topic{ID: "t4", Name: "Intro"})
	inserted, _ := tr.Topic("t4")
	assert.Len(t, inserted.Submodules, 1, "InsertTopic")

	tr.ReplaceTopicID("t4", Topic{ID: "t5", Name: "Intro"})
	swapped, _ := tr.Topic("t5")
	assert.Len(t, swapped.Submodules, 1, "ReplaceTopicID")

	tr.ReplaceTopics([]Topic{{ID: "t6", Name: "Only"}})
	only, _ := tr.Topic("t6")
	assert.Len(t, only.Submodules, 1, "ReplaceTopics")
}

func TestPlaceholderSummaryUsesTrimmedName(t *testing.T) {
	tests := []struct {
		name, title, summary string
	}{
		{"  Basics ", "Basics", `Default submodule for "Basics"`},
		{"   ", "Default Submodule", `Default submodule for "Topic"`},
		{"", "Default Submodule", `Default submodule for "Topic"`},
	}
	for _, tt := range tests {
		got := PlaceholderSubmodule(tt.name)
		if got.Title != tt.title {
			t.Errorf("PlaceholderSubmodule(%q).Title = %q, want %q", tt.name, got.Title, tt.title)
		}
		if got.Summary != tt.summary {
			t.Errorf("PlaceholderSubmodule(%q).Summary = %q, want %q", tt.name, got.Summary, tt.summary)
		}
	}
}

func TestNormalizeTopic(t *testing.T) {
	got := NormalizeTopic(Topic{Name: "  "})
	assert.Equal(t, Medium, got.Difficulty)
	assert.Equal(t, DefaultEstimatedMinutes, got.EstimatedTimeMinutes)
	require.Len(t, got.Submodules, 1)
	assert.Equal(t, "Default Submodule", got.Submodules[0].Title)

	got = NormalizeTopic(Topic{Name: "X", Difficulty: Hard, Submodules: []Submodule{{Title: "a"}}})
	assert.Equal(t, Hard, got.Difficulty)
	assert.NotEmpty(t, got.Submodules[0].ID)
}

func TestValidateTopic(t *testing.T) {
	var verr *ValidationError
	err := ValidateTopic(Topic{Name: ""})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	assert.Error(t, ValidateTopic(Topic{Name: "x", Difficulty: "extreme"}))
	assert.Error(t, ValidateTopic(Topic{Name: "x", Submodules: []Submodule{{Title: " "}}}))
	assert.NoError(t, ValidateTopic(Topic{Name: "x"}))
	assert.Error(t, ValidateTitle("   "))
}

func TestCellJSON(t *testing.T) {
	in := `[{"type":"markdown","content":"# hi"},{"type":"resource","content":[{"url":"https://youtube.com/x","source":"youtube","title":"Intro"}]}]`
	var cells []Cell
	require.NoError(t, json.Unmarshal([]byte(in), &cells))
	require.Len(t, cells, 2)
	assert.Equal(t, "# hi", cells[0].Markdown)
	assert.True(t, cells[0].Mutable())
	assert.False(t, cells[1].Mutable())
	assert.True(t, cells[1].Resources[0].IsVideo())

	out, err := json.Marshal(cells)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))

	var bad Cell
	assert.Error(t, json.Unmarshal([]byte(`{"type":"video","content":""}`), &bad))
}

func TestPathAcceptsBothIDKeys(t *testing.T) {
	var p Path
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"a","title":"t","status":"draft","topics":[]}`), &p))
	assert.Equal(t, "a", p.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b","courseName":"Rust","status":"active"}`), &p))
	assert.Equal(t, "b", p.ID)
	assert.Equal(t, "Rust Path", p.DisplayTitle())
}
