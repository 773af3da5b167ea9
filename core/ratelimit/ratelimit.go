package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/leofalp/researchagent/providers/observability"
)

const (
	// DefaultPerSecond is the request budget of the search API.
	DefaultPerSecond = 1.0
	// DefaultBurst allows a single request at a time.
	DefaultBurst = 1
)

// Gate serializes access to an upstream quota.
type Gate struct {
	limiter  *rate.Limiter
	observer observability.Provider
	name     string
}

// Option configures a Gate.
type Option func(*Gate)

// WithObserver records the time spent waiting on the gate.
func WithObserver(observer observability.Provider) Option {
	return func(g *Gate) {
		g.observer = observer
	}
}

// WithName labels the wait histogram, useful when several gates coexist.
func WithName(name string) Option {
	return func(g *Gate) {
		g.name = name
	}
}

// New creates a gate admitting perSecond events on average with the given
// burst. Non-positive values fall back to the defaults.
func New(perSecond float64, burst int, opts ...Option) *Gate {
	if perSecond <= 0 {
		perSecond = DefaultPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}

	g := &Gate{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		name:    "default",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	sharedOnce sync.Once
	shared     *Gate
)

// Shared returns the process-wide search gate (1 request per second).
func Shared() *Gate {
	sharedOnce.Do(func() {
		shared = New(DefaultPerSecond, DefaultBurst, WithName("shared"))
	})
	return shared
}

// Wait blocks until the gate admits one event or ctx is done. On cancellation
// the context error is returned unchanged and no token is consumed. Without
// its own observer the gate records on the one found in ctx, if any.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// rate.Limiter reports a deadline it cannot meet before it expires.
		return context.DeadlineExceeded
	}

	waited := time.Since(start)
	observer := g.observer
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}
	if observer != nil {
		observer.Histogram(observability.MetricRateLimitWait).Record(ctx, waited.Seconds(),
			observability.String("gate", g.name),
		)
		if span := observability.SpanFromContext(ctx); span != nil {
			span.AddEvent(observability.EventSearchGateAcquired,
				observability.Duration(observability.AttrRateLimitWait, waited),
			)
		}
	}
	return nil
}

// Limit returns the configured events per second.
func (g *Gate) Limit() float64 {
	return float64(g.limiter.Limit())
}
