package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/core/client/middleware"
	"github.com/leofalp/researchagent/core/overview"
	"github.com/leofalp/researchagent/core/ratelimit"
	"github.com/leofalp/researchagent/internal/config"
	"github.com/leofalp/researchagent/patterns/react"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/ai/openai"
	"github.com/leofalp/researchagent/providers/memory/inmemory"
	"github.com/leofalp/researchagent/providers/observability"
	"github.com/leofalp/researchagent/providers/tool/bravesearch"
)

// ErrEmptyQuery is returned by Run for a blank research question.
var ErrEmptyQuery = errors.New("research: query cannot be empty")

// Agent answers research questions with an LLM that can search the web.
// It is safe for concurrent use: every Run gets its own conversation.
type Agent struct {
	settings    *config.Settings
	deps        *Dependencies
	provider    ai.Provider
	search      *bravesearch.Client
	observer    observability.Provider
	middlewares []client.MiddlewareConfig
}

// Result is the outcome of one research run.
type Result struct {
	SessionID string
	Answer    string
	Overview  overview.Overview
}

type agentOptions struct {
	provider      ai.Provider
	observer      observability.Provider
	gate          *ratelimit.Gate
	searchOptions []bravesearch.Option
	middlewares   []client.MiddlewareConfig
}

type Option func(*agentOptions)

// WithProvider replaces the LLM provider built from the settings.
func WithProvider(provider ai.Provider) Option {
	return func(o *agentOptions) {
		o.provider = provider
	}
}

func WithObserver(observer observability.Provider) Option {
	return func(o *agentOptions) {
		o.observer = observer
	}
}

// WithGate replaces the search rate gate.
func WithGate(gate *ratelimit.Gate) Option {
	return func(o *agentOptions) {
		o.gate = gate
	}
}

// WithSearchOptions passes extra options to the search client. They are
// applied after the ones derived from the settings.
func WithSearchOptions(opts ...bravesearch.Option) Option {
	return func(o *agentOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithMiddleware appends LLM middlewares after the built-in retry and timeout.
func WithMiddleware(middlewares ...client.MiddlewareConfig) Option {
	return func(o *agentOptions) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

// New assembles an agent from settings and deps.
func New(settings *config.Settings, deps *Dependencies, opts ...Option) (*Agent, error) {
	if settings == nil {
		return nil, errors.New("research: settings cannot be nil")
	}
	if deps == nil {
		return nil, errors.New("research: dependencies cannot be nil")
	}

	o := &agentOptions{}
	for _, opt := range opts {
		opt(o)
	}

	gate := o.gate
	if gate == nil {
		gate = searchGate(settings.SearchRatePerSecond, o.observer)
	}

	searchOpts := []bravesearch.Option{
		bravesearch.WithHTTPClient(deps.HTTPClient),
		bravesearch.WithGate(gate),
		bravesearch.WithUserAgent(UserAgent),
	}
	if settings.BraveSearchURL != "" {
		searchOpts = append(searchOpts, bravesearch.WithEndpoint(settings.BraveSearchURL))
	}
	if settings.SearchMaxRetries > 0 {
		searchOpts = append(searchOpts, bravesearch.WithMaxRetries(settings.SearchMaxRetries))
	}
	if o.observer != nil {
		searchOpts = append(searchOpts, bravesearch.WithObserver(o.observer))
	}
	search, err := bravesearch.NewClient(deps.BraveAPIKey, append(searchOpts, o.searchOptions...)...)
	if err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		if err := settings.ValidateLLMConfiguration(); err != nil {
			return nil, fmt.Errorf("research: %w", err)
		}
		provider, err = openai.New(
			openai.WithAPIKey(settings.LLMAPIKey),
			openai.WithBaseURL(settings.LLMBaseURL),
			openai.WithModel(settings.LLMModel),
		)
		if err != nil {
			return nil, err
		}
	}

	middlewares := []client.MiddlewareConfig{
		middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: settings.LLMMaxRetries}),
	}
	if settings.LLMTimeout > 0 {
		middlewares = append(middlewares, middleware.NewTimeoutMiddleware(settings.LLMTimeout))
	}
	middlewares = append(middlewares, o.middlewares...)

	return &Agent{
		settings:    settings,
		deps:        deps,
		provider:    provider,
		search:      search,
		observer:    o.observer,
		middlewares: middlewares,
	}, nil
}

// searchGate reuses the process-wide gate at the default rate. That gate has no
// observer of its own; it records on the one the search client puts on ctx.
func searchGate(perSecond float64, observer observability.Provider) *ratelimit.Gate {
	if perSecond <= 0 || perSecond == config.DefaultSearchRatePerSecond {
		return ratelimit.Shared()
	}
	opts := []ratelimit.Option{ratelimit.WithName("brave")}
	if observer != nil {
		opts = append(opts, ratelimit.WithObserver(observer))
	}
	return ratelimit.New(perSecond, 1, opts...)
}

// SessionID identifies the dependencies this agent was built with.
func (a *Agent) SessionID() string {
	return a.deps.SessionID
}

// SearchWeb runs a single search without involving the model and returns the
// formatted results. maxResults <= 0 means DefaultMaxResults; larger values
// are clamped to [1, 20].
func (a *Agent) SearchWeb(ctx context.Context, query string, maxResults int) (string, error) {
	if maxResults <= 0 {
		maxResults = bravesearch.DefaultMaxResults
	}
	maxResults = bravesearch.ClampCount(maxResults)

	if a.observer != nil {
		a.observer.Info(ctx, "agent executing search",
			observability.String(observability.AttrAgentSessionID, a.deps.SessionID),
			observability.String(observability.AttrSearchQuery, observability.TruncateString(query, 100)),
			observability.Int(observability.AttrAgentMaxResults, maxResults),
		)
	}

	results, err := a.search.Search(ctx, query, maxResults)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	return bravesearch.Format(query, results), nil
}

// Run answers query. The model may call search_web as often as the iteration
// budget allows.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if a.observer != nil {
		var span observability.Span
		ctx, span = a.observer.StartSpan(ctx, observability.SpanAgentRun,
			observability.String(observability.AttrAgentSessionID, a.deps.SessionID),
		)
		defer span.End()
		ctx = observability.ContextWithObserver(ctx, a.observer)
	}

	clientOpts := []func(*client.ClientOptions){
		client.WithMemory(inmemory.New()),
		client.WithSystemPrompt(SystemPrompt),
		client.WithDefaultModel(a.settings.LLMModel),
		client.WithTools(bravesearch.NewBraveSearchTool(a.search)),
		client.WithMiddleware(a.middlewares...),
	}
	if a.observer != nil {
		clientOpts = append(clientOpts, client.WithObserver(a.observer))
	}

	llm, err := client.New(a.provider, clientOpts...)
	if err != nil {
		return nil, err
	}
	pattern, err := react.New[string](llm, react.WithMaxIterations(a.settings.AgentMaxIterations))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := pattern.Execute(ctx, query)
	if err != nil {
		a.logFailure(ctx, err)
		if span := observability.SpanFromContext(ctx); span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "research run failed")
		}
		return nil, fmt.Errorf("research run failed: %w", err)
	}

	result := &Result{
		SessionID: a.deps.SessionID,
		Answer:    *out.Data,
		Overview:  out.Overview,
	}

	if a.observer != nil {
		a.observer.Info(ctx, "research completed",
			observability.String(observability.AttrAgentSessionID, a.deps.SessionID),
			observability.Int(observability.AttrAgentIterations, out.Iterations),
			observability.Int(observability.AttrLLMTokensTotal, out.TotalUsage.TotalTokens),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
	}
	return result, nil
}

func (a *Agent) logFailure(ctx context.Context, err error) {
	if a.observer == nil {
		return
	}
	a.observer.Error(ctx, "research run failed",
		observability.String(observability.AttrAgentSessionID, a.deps.SessionID),
		observability.Error(err),
	)
}

// RunResearch creates the dependencies for one query, runs it and releases
// them, even on failure.
func RunResearch(ctx context.Context, settings *config.Settings, query, sessionID string, opts ...Option) (*Result, error) {
	deps, err := NewDependencies(settings, sessionID)
	if err != nil {
		return nil, err
	}
	defer deps.Close()

	agent, err := New(settings, deps, opts...)
	if err != nil {
		return nil, err
	}
	return agent.Run(ctx, query)
}
