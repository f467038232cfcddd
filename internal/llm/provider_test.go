package llm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/abhisek/cognigen/internal/store"
)

func TestMockProvider_ServesQueueInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), UserRequest("", "first", nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` || resp1.Usage.InputTokens != 10 {
		t.Fatalf("first response = %s %+v", resp1.Content, resp1.Usage)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), UserRequest("", "second", nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RespondAfterQueue(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"queued":true}`)})
	mock.Respond = func(req Request) (json.RawMessage, error) {
		return json.RawMessage(`{"name":"` + req.Messages[0].Content + `"}`), nil
	}

	first, err := mock.Generate(context.Background(), UserRequest("", "x", nil, 0))
	if err != nil || string(first.Content) != `{"queued":true}` {
		t.Fatalf("queued response = %v, %v", first, err)
	}

	second, err := mock.Generate(context.Background(), UserRequest("", "go", nameSchema, 0))
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if string(second.Content) != `{"name":"go"}` {
		t.Fatalf("responded = %s", second.Content)
	}
	if mock.CallCount() != 2 || mock.Calls[1].Messages[0].Content != "go" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
}

func TestMockProvider_RespondValidatesSchema(t *testing.T) {
	mock := NewMockProvider()
	mock.Respond = func(Request) (json.RawMessage, error) {
		return json.RawMessage(`{"other":1}`), nil
	}
	_, err := mock.Generate(context.Background(), UserRequest("", "x", nameSchema, 0))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestFinish_TruncatedOutput(t *testing.T) {
	req := UserRequest("", "x", nameSchema, 10)
	_, err := finish(req, &Response{Content: json.RawMessage(`{"na`), StopReason: stopMaxTokens})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeQuiz)
	if p := PurposeFrom(ctx); p != PurposeQuiz {
		t.Fatalf("expected %q, got %q", PurposeQuiz, p)
	}
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "llm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"name":"go"}`), Usage: Usage{InputTokens: 3, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{}},
	)
	p := WithLogging(mock, s.EventRepo(), nil)

	ctx := WithPurpose(context.Background(), PurposePath)
	if _, err := p.Generate(ctx, UserRequest("sys", "make a path", nameSchema, 100)); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := p.Generate(ctx, UserRequest("sys", "again", nil, 100)); err == nil {
		t.Fatal("expected the second call to fail")
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	failed, ok := events[0], events[1]
	if failed.Success || failed.ErrorMessage == "" {
		t.Errorf("newest event should be the failure: %+v", failed)
	}
	if !ok.Success || ok.Purpose != PurposePath || ok.InputTokens != 3 || ok.ResponseBody != `{"name":"go"}` {
		t.Errorf("successful event = %+v", ok)
	}
	if ok.RequestBody == "" {
		t.Error("request body not captured")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: ProviderConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: ProviderConfig{APIKey: "sk-or"}}, false},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	cfg := configFrom(env(nil))
	if cfg.Provider != ProviderMock {
		t.Errorf("default provider = %q, want mock", cfg.Provider)
	}

	cfg = configFrom(env(map[string]string{
		"COGNIGEN_LLM_PROVIDER":  "openai",
		"COGNIGEN_OPENAI_API_KEY": "sk-1",
		"COGNIGEN_OPENAI_MODEL":  "gpt-4o",
		"COGNIGEN_LLM_TIMEOUT":   "45s",
		"GEMINI_API_KEY":         "ignored",
	}))
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-1" || cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("explicit config = %+v", cfg)
	}
	if cfg.Timeout.String() != "45s" {
		t.Errorf("timeout = %s, want 45s", cfg.Timeout)
	}

	cfg = configFrom(env(map[string]string{"ANTHROPIC_API_KEY": "sk-ant"}))
	if cfg.Provider != ProviderAnthropic || cfg.Anthropic.APIKey != "sk-ant" {
		t.Errorf("discovered config = %+v", cfg)
	}

	if cfg := DefaultConfig(); cfg.OpenRouter.BaseURL != defaultOpenRouterBaseURL {
		t.Errorf("openrouter base URL = %q", cfg.OpenRouter.BaseURL)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("model = %q, want mock", p.ModelID())
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected a missing key error")
	}
}

var nameSchema = &Schema{
	Name: "named",
	Definition: map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []any{"name"},
	},
}
