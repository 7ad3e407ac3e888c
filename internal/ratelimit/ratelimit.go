package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/amishk599/gigfinder/internal/model"
)

// PlatformLimiter hands out one token bucket per platform, so concurrent
// searches against the same site are spaced out while different sites do
// not block each other.
type PlatformLimiter struct {
	mu       sync.Mutex
	limiters map[model.Platform]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewPlatformLimiter creates a limiter allowing rps requests per second per
// platform with the given burst. A non-positive rps disables limiting.
func NewPlatformLimiter(rps float64, burst int) *PlatformLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &PlatformLimiter{
		limiters: make(map[model.Platform]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *PlatformLimiter) limiter(p model.Platform) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[p]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[p] = lim
	}
	return lim
}

// Wait blocks until a request to platform p is allowed or ctx is done.
func (l *PlatformLimiter) Wait(ctx context.Context, p model.Platform) error {
	if err := l.limiter(p).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", p, err)
	}
	return nil
}

// RateLimitedSource is a decorator that waits on the platform's limiter
// before delegating to the wrapped JobSource.
type RateLimitedSource struct {
	inner   model.JobSource
	limiter *PlatformLimiter
}

// NewRateLimitedSource wraps a JobSource. All sources of one run should
// share the same limiter instance.
func NewRateLimitedSource(inner model.JobSource, limiter *PlatformLimiter) *RateLimitedSource {
	return &RateLimitedSource{inner: inner, limiter: limiter}
}

func (s *RateLimitedSource) Platform() model.Platform { return s.inner.Platform() }

func (s *RateLimitedSource) Search(ctx context.Context, term string, page int) ([]model.Job, error) {
	if err := s.limiter.Wait(ctx, s.inner.Platform()); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, term, page)
}
