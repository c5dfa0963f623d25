package llm

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	// Provider is one of "groq", "openai", "gemini", "anthropic".
	Provider       string
	APIKey         string
	Model          string
	BaseURL        string
	Timeout        time.Duration
	ConcurrentReqs int
	Retry          RetryConfig
}

// NewProvider builds the configured provider wrapped as
// caller → retry → limits → base. The returned func releases client resources.
func NewProvider(ctx context.Context, cfg Config) (Provider, func(), error) {
	var base Provider
	closeFn := func() {}

	switch cfg.Provider {
	case "groq":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		p, err := NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, Model: orDefault(cfg.Model, groqDefaultModel), BaseURL: baseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("initializing groq provider: %w", err)
		}
		base = p
	case "openai":
		p, err := NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, Model: orDefault(cfg.Model, openaiModel), BaseURL: cfg.BaseURL})
		if err != nil {
			return nil, nil, fmt.Errorf("initializing openai provider: %w", err)
		}
		base = p
	case "gemini":
		p, err := NewGeminiProvider(ctx, cfg.APIKey, orDefault(cfg.Model, geminiDefaultModel))
		if err != nil {
			return nil, nil, fmt.Errorf("initializing gemini provider: %w", err)
		}
		base = p
		closeFn = func() { p.Close() }
	case "anthropic":
		p, err := NewAnthropicProvider(cfg.APIKey, orDefault(cfg.Model, anthropicDefaultModel))
		if err != nil {
			return nil, nil, fmt.Errorf("initializing anthropic provider: %w", err)
		}
		base = p
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}

	limited := WithLimits(base, cfg.ConcurrentReqs, cfg.Timeout)
	return WithRetry(limited, cfg.Retry), closeFn, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
