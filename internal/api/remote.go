package api

import (
	"context"

	"github.com/abhisek/cognigen/internal/content"
)

// Remote is the learning API as consumed by the sync engine. Every write carries
// the complete new sub-resource state, so calls are safe to replay.
type Remote interface {
	ListPaths(ctx context.Context) ([]content.Path, error)
	FetchPath(ctx context.Context, pathID string) (*content.Path, error)
	GeneratePath(ctx context.Context, params GenerateParams) (*content.Path, error)
	UpdatePathTitle(ctx context.Context, pathID, title string) (*content.Path, error)
	DeletePath(ctx context.Context, pathID string) error

	AddTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error)
	UpdateTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error)
	DeleteTopic(ctx context.Context, pathID, topicID string) error

	ReorderTopics(ctx context.Context, pathID string, orderedIDs []string) ([]content.Topic, error)
	ReorderSubmodules(ctx context.Context, pathID, topicID string, orderedIDs []string) ([]content.Submodule, error)

	GenerateTopicContent(ctx context.Context, pathID, topicID string, subs []SubmoduleOutline) (*content.Topic, error)
	GenerateQuiz(ctx context.Context, pathID, topicID, subID string) ([]content.QuizQuestion, error)
	MarkComplete(ctx context.Context, pathID, topicID, subID string) (*content.Path, error)

	AddCell(ctx context.Context, ref SubmoduleRef, cell content.Cell, position int) ([]content.Cell, error)
	EditCell(ctx context.Context, ref SubmoduleRef, index int, text string) ([]content.Cell, error)
	DeleteCell(ctx context.Context, ref SubmoduleRef, index int) ([]content.Cell, error)
}

// AuthRemote covers the cookie-session endpoints.
type AuthRemote interface {
	Me(ctx context.Context) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Signup(ctx context.Context, name, email, password string) (*User, error)
	Logout(ctx context.Context) error
}

// SubmoduleRef addresses one submodule.
type SubmoduleRef struct {
	PathID  string
	TopicID string
	SubID   string
}

// SubmoduleOutline is the part of a submodule sent to content generation.
type SubmoduleOutline struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// OutlineOf extracts the generation outline of a topic.
func OutlineOf(t content.Topic) []SubmoduleOutline {
	out := make([]SubmoduleOutline, len(t.Submodules))
	for i, s := range t.Submodules {
		out[i] = SubmoduleOutline{ID: s.ID, Title: s.Title, Summary: s.Summary}
	}
	return out
}

// User is the authenticated account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
