package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured JSON from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the provider asks for JSON in that shape and validates it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request is one generation call.
type Request struct {
	System string

	// Messages is usually a single user turn describing the course,
	// topic or submodule to generate for.
	Messages []Message

	// Schema, when set, selects the provider's structured output mode.
	// Without it Content carries the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name is kebab-case, e.g. "learning-path". Anthropic and OpenAI
	// send it as the schema name; it also keys the compile cache.
	Name string

	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is validated JSON when the request had a Schema, raw text
	// otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is one of "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserRequest builds the single-turn request every content generator sends.
func UserRequest(system, prompt string, schema *Schema, maxTokens int) Request {
	return Request{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		Schema:    schema,
		MaxTokens: maxTokens,
	}
}

const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)

// finish validates structured output. A truncated response that fails
// validation reports ErrMaxTokensExceeded instead of a schema error.
func finish(req Request, resp *Response) (*Response, error) {
	if req.Schema == nil {
		return resp, nil
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		if resp.StopReason == stopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: resp.Content}
		}
		return nil, err
	}
	return resp, nil
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names pass through so full IDs work too.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
