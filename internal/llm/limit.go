package llm

import (
	"context"
	"fmt"
	"log"
	"time"
)

// LimitedProvider bounds concurrent calls with a slot channel and each call
// with a timeout. Every call is logged with its latency.
type LimitedProvider struct {
	inner   Provider
	slots   chan struct{}
	timeout time.Duration
}

func WithLimits(p Provider, concurrent int, timeout time.Duration) Provider {
	if concurrent < 1 {
		concurrent = 1
	}
	slots := make(chan struct{}, concurrent)
	for i := 0; i < concurrent; i++ {
		slots <- struct{}{}
	}
	return &LimitedProvider{inner: p, slots: slots, timeout: timeout}
}

func (l *LimitedProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case <-l.slots:
	case <-ctx.Done():
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("waiting for LLM slot: %w", ctx.Err())}
	}
	defer func() { l.slots <- struct{}{} }()

	start := time.Now()
	resp, err := l.inner.Complete(ctx, req)
	if err != nil {
		log.Printf("LLM %s call failed after %s: %v", l.inner.ModelID(), time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	log.Printf("LLM %s call completed in %s", l.inner.ModelID(), time.Since(start).Round(time.Millisecond))
	return resp, nil
}

func (l *LimitedProvider) ModelID() string {
	return l.inner.ModelID()
}
