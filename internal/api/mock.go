package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/cognigen/internal/content"
)

// MockCall records one Remote invocation.
type MockCall struct {
	Method string
	Args   []any
	Key    string
}

// MockResponse is a canned answer for one call.
type MockResponse struct {
	Value any
	Err   error
}

// Mock is a deterministic Remote for tests. Responses are queued per method and
// served in FIFO order; a call with nothing queued fails.
type Mock struct {
	mu        sync.Mutex
	responses map[string][]MockResponse
	Calls     []MockCall
}

var _ Remote = (*Mock)(nil)

// NewMock creates an empty Mock.
func NewMock() *Mock {
	return &Mock{responses: make(map[string][]MockResponse)}
}

// Enqueue queues a response for method.
func (m *Mock) Enqueue(method string, value any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = append(m.responses[method], MockResponse{Value: value, Err: err})
}

// CallCount returns the number of calls made to method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call to method.
func (m *Mock) LastCall(method string) (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			return m.Calls[i], true
		}
	}
	return MockCall{}, false
}

func (m *Mock) next(ctx context.Context, method string, args ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args, Key: IdempotencyKeyFrom(ctx)})
	q := m.responses[method]
	if len(q) == 0 {
		return nil, fmt.Errorf("mock: no response queued for %s", method)
	}
	m.responses[method] = q[1:]
	return q[0].Value, q[0].Err
}

func mockValue[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("mock: queued %T, want %T", v, zero)
	}
	return out, nil
}

func (m *Mock) ListPaths(ctx context.Context) ([]content.Path, error) {
	return mockValue[[]content.Path](m.next(ctx, "ListPaths"))
}

func (m *Mock) FetchPath(ctx context.Context, pathID string) (*content.Path, error) {
	return mockValue[*content.Path](m.next(ctx, "FetchPath", pathID))
}

func (m *Mock) GeneratePath(ctx context.Context, params GenerateParams) (*content.Path, error) {
	return mockValue[*content.Path](m.next(ctx, "GeneratePath", params))
}

func (m *Mock) UpdatePathTitle(ctx context.Context, pathID, title string) (*content.Path, error) {
	return mockValue[*content.Path](m.next(ctx, "UpdatePathTitle", pathID, title))
}

func (m *Mock) DeletePath(ctx context.Context, pathID string) error {
	_, err := m.next(ctx, "DeletePath", pathID)
	return err
}

func (m *Mock) AddTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error) {
	return mockValue[*content.Topic](m.next(ctx, "AddTopic", pathID, topic))
}

func (m *Mock) UpdateTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error) {
	return mockValue[*content.Topic](m.next(ctx, "UpdateTopic", pathID, topic))
}

func (m *Mock) DeleteTopic(ctx context.Context, pathID, topicID string) error {
	_, err := m.next(ctx, "DeleteTopic", pathID, topicID)
	return err
}

func (m *Mock) ReorderTopics(ctx context.Context, pathID string, orderedIDs []string) ([]content.Topic, error) {
	return mockValue[[]content.Topic](m.next(ctx, "ReorderTopics", pathID, orderedIDs))
}

func (m *Mock) ReorderSubmodules(ctx context.Context, pathID, topicID string, orderedIDs []string) ([]content.Submodule, error) {
	return mockValue[[]content.Submodule](m.next(ctx, "ReorderSubmodules", pathID, topicID, orderedIDs))
}

func (m *Mock) GenerateTopicContent(ctx context.Context, pathID, topicID string, subs []SubmoduleOutline) (*content.Topic, error) {
	return mockValue[*content.Topic](m.next(ctx, "GenerateTopicContent", pathID, topicID, subs))
}

func (m *Mock) GenerateQuiz(ctx context.Context, pathID, topicID, subID string) ([]content.QuizQuestion, error) {
	return mockValue[[]content.QuizQuestion](m.next(ctx, "GenerateQuiz", pathID, topicID, subID))
}

func (m *Mock) MarkComplete(ctx context.Context, pathID, topicID, subID string) (*content.Path, error) {
	return mockValue[*content.Path](m.next(ctx, "MarkComplete", pathID, topicID, subID))
}

func (m *Mock) AddCell(ctx context.Context, ref SubmoduleRef, cell content.Cell, position int) ([]content.Cell, error) {
	return mockValue[[]content.Cell](m.next(ctx, "AddCell", ref, cell, position))
}

func (m *Mock) EditCell(ctx context.Context, ref SubmoduleRef, index int, text string) ([]content.Cell, error) {
	return mockValue[[]content.Cell](m.next(ctx, "EditCell", ref, index, text))
}

func (m *Mock) DeleteCell(ctx context.Context, ref SubmoduleRef, index int) ([]content.Cell, error) {
	return mockValue[[]content.Cell](m.next(ctx, "DeleteCell", ref, index))
}
