package llm

import (
	"fmt"
	"time"
)

// ErrProviderUnavailable indicates the provider could not be reached.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrStatus indicates the provider answered with a non-success HTTP status.
type ErrStatus struct {
	StatusCode int
	Err        error
}

func (e *ErrStatus) Error() string {
	return fmt.Sprintf("LLM provider returned status %d: %v", e.StatusCode, e.Err)
}

func (e *ErrStatus) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates a reply arrived but carried no usable content.
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }
