package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cognigen/internal/content"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/api"
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

const pathDoc = `{"_id":"p1","title":"Go","status":"active","topics":[
 {"id":"t1","name":"Basics","difficulty":"medium","submodules":[
  {"id":"s1","title":"Syntax","cells":[{"type":"markdown","content":"hi"}]}]}]}`

func TestFetchPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/learning-paths/p1", r.URL.Path)
		w.Header().Set(VersionHeader, "v1.2.0")
		io.WriteString(w, pathDoc)
	})
	p, err := c.FetchPath(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	require.Len(t, p.Topics, 1)
	assert.Equal(t, "hi", p.Topics[0].Submodules[0].Cells[0].Markdown)
}

func TestFetchPathRejectsMalformedDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"_id":"p1","topics":[{"name":"no id"}]}`)
	})
	_, err := c.FetchPath(context.Background(), "p1")
	assert.ErrorContains(t, err, "path document rejected")
}

func TestFetchPathCoalescesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, pathDoc)
	})

	var wg sync.WaitGroup
	results := make([]*content.Path, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.FetchPath(context.Background(), "p1")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	results[0].Title = "changed"
	assert.Equal(t, "Go", results[1].Title, "callers must not share a path value")
}

func TestReorderTopicsSendsFullOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/learning-paths/p1/reorder-topics", r.URL.Path)
		assert.Equal(t, "m-1", r.Header.Get("Idempotency-Key"))
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"b", "a"}, body["orderedTopicIds"])
		io.WriteString(w, `{"topics":[{"id":"b","name":"B"},{"id":"a","name":"A"}]}`)
	})
	ctx := WithIdempotencyKey(context.Background(), "m-1")
	topics, err := c.ReorderTopics(ctx, "p1", []string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "b", topics[0].ID)
}

func TestGenerateTopicContentAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`{"updatedTopic":{"id":"t1","name":"A","contentGenerated":true}}`,
		`{"id":"t1","name":"A","contentGenerated":true}`,
	}
	for _, b := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]SubmoduleOutline
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body["submodules"], 1)
			io.WriteString(w, b)
		})
		tp, err := c.GenerateTopicContent(context.Background(), "p1", "t1", []SubmoduleOutline{{ID: "s1", Title: "x"}})
		require.NoError(t, err)
		assert.True(t, tp.ContentGenerated)
	}
}

func TestCellEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/api/learning-paths/p/topics/t/submodules/s/cells", r.URL.Path)
			var body struct {
				Cell     content.Cell `json:"cell"`
				Position int          `json:"position"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 1, body.Position)
			io.WriteString(w, `{"cells":[{"type":"markdown","content":"a"},{"type":"markdown","content":"b"}]}`)
		case http.MethodPatch:
			assert.Equal(t, "/api/learning-paths/p/topics/t/submodules/s/cells/0", r.URL.Path)
			io.WriteString(w, `[{"type":"markdown","content":"edited"}]`)
		case http.MethodDelete:
			io.WriteString(w, `{"cells":[]}`)
		}
	})
	ref := SubmoduleRef{PathID: "p", TopicID: "t", SubID: "s"}
	ctx := context.Background()

	cells, err := c.AddCell(ctx, ref, content.NewMarkdownCell(), 1)
	require.NoError(t, err)
	assert.Len(t, cells, 2)

	cells, err = c.EditCell(ctx, ref, 0, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", cells[0].Markdown)

	cells, err = c.DeleteCell(ctx, ref, 0)
	require.NoError(t, err)
	assert.NotNil(t, cells)
	assert.Empty(t, cells)
}

func TestErrorMapping(t *testing.T) {
	status := http.StatusBadRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, `{"message":"Title is required"}`)
	})

	_, err := c.UpdatePathTitle(context.Background(), "p1", "")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", Message(err))

	status = http.StatusUnauthorized
	_, err = c.ListPaths(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestServerVersionGate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(VersionHeader, "0.9.0")
		io.WriteString(w, `[]`)
	})
	_, err := c.ListPaths(context.Background())
	var incompatible *ErrIncompatibleServer
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, "v0.9.0", incompatible.Have)
}

func TestSessionCookieKeptInJar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "token", Value: "abc", Path: "/"})
			io.WriteString(w, `{"user":{"_id":"u1","name":"Ana","email":"a@x.io"}}`)
		case "/api/auth/me":
			ck, err := r.Cookie("token")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "abc", ck.Value)
			io.WriteString(w, `{"user":{"_id":"u1","name":"Ana"}}`)
		}
	})
	ctx := context.Background()
	u, err := c.Login(ctx, "a@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "abc", c.SessionCookie("token"))

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
}

func TestGenerateParams(t *testing.T) {
	p := GenerateParams{
		CourseName:      "  Go ",
		ExperienceLevel: "Beginner",
		Goal:            "Mastery",
		LearningStyle:   "mixed",
		CustomTopics:    []string{"channels", " channels", "", "generics"},
	}.Normalize()
	assert.Equal(t, "Go", p.CourseName)
	assert.Equal(t, "beginner", p.ExperienceLevel)
	assert.Equal(t, DefaultHoursPerDay, p.TimeAvailability.PerDayHours)
	assert.Equal(t, []string{"channels", "generics"}, p.CustomTopics)
	assert.NoError(t, p.Validate())

	bad := p
	bad.Goal = "fun"
	var verr *content.ValidationError
	require.ErrorAs(t, bad.Validate(), &verr)
	assert.Equal(t, "goal", verr.Field)

	bad = p
	bad.TimeAvailability.PerDayHours = 9
	assert.Error(t, bad.Validate())
}

func TestMockServesFIFO(t *testing.T) {
	m := NewMock()
	m.Enqueue("DeleteTopic", nil, nil)
	m.Enqueue("DeleteTopic", nil, errors.New("boom"))
	ctx := WithIdempotencyKey(context.Background(), "k")

	assert.NoError(t, m.DeleteTopic(ctx, "p", "t"))
	assert.EqualError(t, m.DeleteTopic(ctx, "p", "t"), "boom")
	assert.Error(t, m.DeleteTopic(ctx, "p", "t"))
	assert.Equal(t, 3, m.CallCount("DeleteTopic"))
	last, ok := m.LastCall("DeleteTopic")
	require.True(t, ok)
	assert.Equal(t, "k", last.Key)
}
