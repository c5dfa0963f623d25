package llm

import "context"

// Provider sends a single user prompt to a text-generation service and
// returns the reply text.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request is one user-role message exchange.
type Request struct {
	Prompt string

	// MaxTokens caps the reply length. Zero leaves the provider default.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Response holds the model's reply content.
type Response struct {
	Text  string
	Model string
}
