package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/llm"
	"github.com/abhisek/cognigen/internal/logger"
)

const (
	pathMaxTokens    = 4096
	contentMaxTokens = 8192
	quizMaxTokens    = 2048
)

// Generator produces path outlines, notebook content and quizzes through
// an LLM provider.
type Generator struct {
	provider llm.Provider
	log      *logger.Logger
}

// NewGenerator wraps provider. A nil provider generates offline with
// deterministic placeholder material.
func NewGenerator(provider llm.Provider, log *logger.Logger) *Generator {
	if provider == nil {
		provider = OfflineProvider()
	}
	return &Generator{provider: provider, log: logger.OrNop(log)}
}

// OfflineProvider is a mock provider that answers every generation request
// from the brief embedded in its prompt.
func OfflineProvider() *llm.MockProvider {
	m := llm.NewMockProvider()
	m.Respond = respondOffline
	return m
}

// PathOutline is a generated curriculum ready to replace a draft's topics.
type PathOutline struct {
	Title       string
	Description string
	Topics      []content.Topic
}

type pathOutput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Topics      []struct {
		Name             string             `json:"name"`
		Difficulty       content.Difficulty `json:"difficulty"`
		EstimatedMinutes int                `json:"estimated_minutes"`
		Submodules       []struct {
			Title   string `json:"title"`
			Summary string `json:"summary"`
		} `json:"submodules"`
	} `json:"topics"`
}

// Path generates the outline for params.
func (g *Generator) Path(ctx context.Context, params api.GenerateParams) (*PathOutline, error) {
	brief := pathBrief{
		CourseName:      params.CourseName,
		ExperienceLevel: params.ExperienceLevel,
		Goal:            params.Goal,
		LearningStyle:   params.LearningStyle,
		HoursPerDay:     params.TimeAvailability.PerDayHours,
		CustomTopics:    params.CustomTopics,
	}
	var out pathOutput
	req := llm.UserRequest(pathSystemPrompt, buildPathMessage(brief), PathSchema, pathMaxTokens)
	if err := g.generate(llm.WithPurpose(ctx, llm.PurposePath), req, &out); err != nil {
		return nil, fmt.Errorf("path generation: %w", err)
	}

	outline := &PathOutline{Title: out.Title, Description: out.Description}
	for _, t := range out.Topics {
		topic := content.Topic{
			ID:                   uuid.NewString(),
			Name:                 t.Name,
			Difficulty:           t.Difficulty,
			EstimatedTimeMinutes: t.EstimatedMinutes,
		}
		for _, s := range t.Submodules {
			topic.Submodules = append(topic.Submodules, content.Submodule{
				ID:      uuid.NewString(),
				Title:   s.Title,
				Summary: s.Summary,
			})
		}
		outline.Topics = append(outline.Topics, content.NormalizeTopic(topic))
	}
	return outline, nil
}

type contentOutput struct {
	Submodules []struct {
		ID        string             `json:"id"`
		Markdown  []string           `json:"markdown"`
		Resources []content.Resource `json:"resources"`
	} `json:"submodules"`
}

// TopicContent generates notebook cells keyed by submodule id. Submodules
// the model skipped are absent from the result.
func (g *Generator) TopicContent(ctx context.Context, pathTitle, topicName string, subs []api.SubmoduleOutline) (map[string][]content.Cell, error) {
	brief := contentBrief{Path: pathTitle, Topic: topicName}
	for _, s := range subs {
		brief.Submodules = append(brief.Submodules, outlineBrief(s))
	}
	var out contentOutput
	req := llm.UserRequest(contentSystemPrompt, buildContentMessage(brief), ContentSchema, contentMaxTokens)
	if err := g.generate(llm.WithPurpose(ctx, llm.PurposeContent), req, &out); err != nil {
		return nil, fmt.Errorf("content generation: %w", err)
	}

	cells := make(map[string][]content.Cell, len(out.Submodules))
	for _, s := range out.Submodules {
		list := make([]content.Cell, 0, len(s.Markdown)+1)
		for _, md := range s.Markdown {
			list = append(list, content.Cell{Type: content.CellMarkdown, Markdown: md})
		}
		if len(s.Resources) > 0 {
			list = append(list, content.Cell{Type: content.CellResource, Resources: s.Resources})
		}
		cells[s.ID] = list
	}
	if len(cells) < len(subs) {
		g.log.Warn("content generation skipped submodules", "topic", topicName, "want", len(subs), "got", len(cells))
	}
	return cells, nil
}

type quizOutput struct {
	Questions []content.QuizQuestion `json:"questions"`
}

// Quiz generates a mini quiz from the submodule's notes. Questions whose
// answer letter names no option are dropped.
func (g *Generator) Quiz(ctx context.Context, sub content.Submodule) ([]content.QuizQuestion, error) {
	brief := quizBrief{Title: sub.Title, Summary: sub.Summary, Notes: notes(sub.Cells)}
	var out quizOutput
	req := llm.UserRequest(quizSystemPrompt, buildQuizMessage(brief), QuizSchema, quizMaxTokens)
	if err := g.generate(llm.WithPurpose(ctx, llm.PurposeQuiz), req, &out); err != nil {
		return nil, fmt.Errorf("quiz generation: %w", err)
	}

	questions := make([]content.QuizQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		if len(q.Answer) != 1 || int(q.Answer[0]-'A') >= len(q.Options) {
			g.log.Warn("dropping quiz question with bad answer", "answer", q.Answer, "options", len(q.Options))
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz generation: no usable questions")
	}
	return questions, nil
}

func (g *Generator) generate(ctx context.Context, req llm.Request, out any) error {
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Content, out); err != nil {
		return fmt.Errorf("parse %s response: %w", req.Schema.Name, err)
	}
	return nil
}

// notes flattens the markdown cells of a submodule.
func notes(cells []content.Cell) string {
	var parts []string
	for _, c := range cells {
		if c.Type == content.CellMarkdown && c.Markdown != "" {
			parts = append(parts, c.Markdown)
		}
	}
	return strings.Join(parts, "\n\n")
}
