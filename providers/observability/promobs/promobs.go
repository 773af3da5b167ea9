package promobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leofalp/researchagent/providers/observability"
)

// DefaultNamespace prefixes every exported metric name.
const DefaultNamespace = "research"

// Observer routes metrics to a Prometheus registry and everything else to the
// wrapped provider.
type Observer struct {
	inner     observability.Provider
	registry  *prometheus.Registry
	namespace string

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Provider = (*Observer)(nil)

// Option configures an Observer.
type Option func(*Observer)

// WithNamespace overrides [DefaultNamespace].
func WithNamespace(namespace string) Option {
	return func(o *Observer) {
		o.namespace = sanitize(namespace)
	}
}

// WithRegistry uses an existing registry instead of a private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *Observer) {
		o.registry = registry
	}
}

// New wraps inner. inner must not be nil.
func New(inner observability.Provider, opts ...Option) *Observer {
	o := &Observer{
		inner:      inner,
		registry:   prometheus.NewRegistry(),
		namespace:  DefaultNamespace,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry exposes the underlying registry, mainly for tests and for callers
// that want to add their own collectors.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr under /metrics until ctx is done. An empty
// addr disables the endpoint.
func (o *Observer) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if log != nil {
				log.Error("metrics server failed", slog.String("addr", addr), slog.String("error", err.Error()))
			}
		}
	}()
	return nil
}

// --- delegated tracing and logging ---

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	return o.inner.StartSpan(ctx, name, attrs...)
}

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.inner.Trace(ctx, msg, attrs...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.inner.Debug(ctx, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.inner.Info(ctx, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.inner.Warn(ctx, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.inner.Error(ctx, msg, attrs...)
}

// --- METRICS ---

// Counter returns a lazily registered Prometheus counter.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	c, ok := o.counters[name]
	if !ok {
		c = &counter{owner: o, name: name}
		o.counters[name] = c
	}
	return c
}

// Histogram returns a lazily registered Prometheus histogram.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()

	h, ok := o.histograms[name]
	if !ok {
		h = &histogram{owner: o, name: name}
		o.histograms[name] = h
	}
	return h
}

type counter struct {
	owner  *Observer
	name   string
	once   sync.Once
	labels []string
	vec    *prometheus.CounterVec
	err    error
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.once.Do(func() {
		c.labels = labelNames(attrs)
		c.vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.owner.namespace,
			Name:      sanitize(c.name),
			Help:      fmt.Sprintf("Counter %s.", c.name),
		}, c.labels)
		c.err = c.owner.registry.Register(c.vec)
	})
	if c.err != nil {
		c.owner.inner.Warn(ctx, "prometheus counter unavailable",
			observability.String("metric", c.name), observability.Error(c.err))
		return
	}
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.labels, attrs)...).Add(float64(value))
}

type histogram struct {
	owner  *Observer
	name   string
	once   sync.Once
	labels []string
	vec    *prometheus.HistogramVec
	err    error
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.once.Do(func() {
		h.labels = labelNames(attrs)
		h.vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: h.owner.namespace,
			Name:      sanitize(h.name),
			Help:      fmt.Sprintf("Histogram %s.", h.name),
			Buckets:   prometheus.DefBuckets,
		}, h.labels)
		h.err = h.owner.registry.Register(h.vec)
	})
	if h.err != nil {
		h.owner.inner.Warn(ctx, "prometheus histogram unavailable",
			observability.String("metric", h.name), observability.Error(h.err))
		return
	}
	h.vec.WithLabelValues(labelValues(h.labels, attrs)...).Observe(value)
}

func labelNames(attrs []observability.Attribute) []string {
	seen := make(map[string]bool, len(attrs))
	names := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		name := sanitize(attr.Key)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, attrs []observability.Attribute) []string {
	byName := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		byName[sanitize(attr.Key)] = fmt.Sprint(attr.Value)
	}
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = byName[name]
	}
	return values
}

// sanitize maps a dotted metric or attribute name onto the Prometheus charset.
func sanitize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
