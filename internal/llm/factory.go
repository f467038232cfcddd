package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/cognigen/internal/logger"
	"github.com/abhisek/cognigen/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → base. A nil repo skips request logging.
func NewProvider(ctx context.Context, cfg Config, repo store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if repo != nil {
		base = WithLogging(base, repo, log)
	}
	if cfg.Provider == ProviderMock {
		return base, nil
	}
	return WithRetry(base, cfg.Retry, log), nil
}
