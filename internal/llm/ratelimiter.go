package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token-bucket limit on
// requests per minute. A nil or zero limit passes calls straight through.
type RateLimitedProvider struct {
	inner  Provider
	mu     sync.Mutex
	tokens float64
	max    float64
	refill float64 // tokens per second
	last   time.Time
}

// NewRateLimitedProvider wraps inner with a limit of rpm requests per
// minute. If rpm <= 0 the provider is returned unwrapped.
func NewRateLimitedProvider(inner Provider, rpm int) Provider {
	if rpm <= 0 {
		return inner
	}
	return &RateLimitedProvider{
		inner:  inner,
		tokens: float64(rpm),
		max:    float64(rpm),
		refill: float64(rpm) / 60.0,
		last:   time.Now(),
	}
}

func (p *RateLimitedProvider) Name() string {
	return p.inner.Name()
}

func (p *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := p.wait(ctx); err != nil {
		return nil, providerErr(p.inner.Name(), err)
	}
	return p.inner.Complete(ctx, req)
}

// wait blocks until a token is available or the context is done.
func (p *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		now := time.Now()
		p.tokens += now.Sub(p.last).Seconds() * p.refill
		if p.tokens > p.max {
			p.tokens = p.max
		}
		p.last = now
		if p.tokens >= 1 {
			p.tokens--
			p.mu.Unlock()
			return nil
		}
		need := time.Duration((1 - p.tokens) / p.refill * float64(time.Second))
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(need):
		}
	}
}
