package bravesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leofalp/researchagent/core/ratelimit"
	"github.com/leofalp/researchagent/providers/observability"
)

// Client defaults.
const (
	DefaultEndpoint       = "https://api.search.brave.com/res/v1/web/search"
	DefaultSearchLang     = "en"
	DefaultMaxRetries     = 3
	DefaultNetworkRetries = 2
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
	DefaultTimeout        = 30 * time.Second

	// Bounds applied to every search; requests outside them are clamped.
	MinResults     = 1
	MaxResults     = 20
	MaxQueryLength = 400

	maxResponseBytes = 5 << 20
)

// Client issues web searches. It is safe for concurrent use; concurrency is
// bounded by the gate, not by the client.
type Client struct {
	apiKey         string
	endpoint       string
	httpClient     *http.Client
	gate           *ratelimit.Gate
	maxRetries     int
	networkRetries int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	searchLang     string
	userAgent      string
	observer       observability.Provider
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at another web search URL, e.g. a test server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the default client and its 30s timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithGate replaces the process-wide gate, e.g. to give tests their own.
func WithGate(gate *ratelimit.Gate) Option {
	return func(c *Client) {
		if gate != nil {
			c.gate = gate
		}
	}
}

// WithMaxRetries bounds the retries after a 429. Zero disables them.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithNetworkRetries bounds the retries after a transport error or a 5xx.
func WithNetworkRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.networkRetries = n
		}
	}
}

// WithBackoff sets the first 429 delay and the cap it doubles up to.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.initialBackoff = initial
		}
		if maxDelay > 0 {
			c.maxBackoff = maxDelay
		}
	}
}

// WithSearchLang sets the search_lang parameter. Default: "en".
func WithSearchLang(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.searchLang = lang
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithObserver attaches an observer. Without one, the observer carried by the
// request context (if any) is used.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a client for apiKey. A blank key is rejected.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:         strings.TrimSpace(apiKey),
		endpoint:       DefaultEndpoint,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		gate:           ratelimit.Shared(),
		maxRetries:     DefaultMaxRetries,
		networkRetries: DefaultNetworkRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		searchLang:     DefaultSearchLang,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxBackoff < c.initialBackoff {
		c.maxBackoff = c.initialBackoff
	}
	return c, nil
}

// ClampCount bounds n to [MinResults, MaxResults].
func ClampCount(n int) int {
	switch {
	case n < MinResults:
		return MinResults
	case n > MaxResults:
		return MaxResults
	}
	return n
}

// Search runs query and returns at most maxResults hits (clamped to
// [MinResults, MaxResults]) in the order the API ranked them.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	q, err := SanitizeQuery(query)
	if err != nil {
		return nil, err
	}
	count := ClampCount(maxResults)

	observer := c.observer
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}

	var span observability.Span
	if observer != nil {
		ctx = observability.ContextWithObserver(ctx, observer)
		ctx, span = observer.StartSpan(ctx, observability.SpanSearchRequest,
			observability.String(observability.AttrSearchQuery, observability.TruncateString(q, 100)),
			observability.Int(observability.AttrSearchCount, count),
		)
		defer span.End()
	}

	start := time.Now()
	results, err := c.search(ctx, observer, q, count)
	duration := time.Since(start)

	if observer != nil {
		status := "ok"
		if err != nil {
			status = errorKind(err)
			span.RecordError(err)
			span.SetStatus(observability.StatusError, status)
		} else {
			span.SetAttributes(observability.Int(observability.AttrSearchResults, len(results)))
			span.SetStatus(observability.StatusOK, "")
		}
		observer.Counter(observability.MetricSearchRequestCount).Add(ctx, 1,
			observability.String(observability.AttrStatus, status),
		)
		observer.Histogram(observability.MetricSearchRequestDuration).Record(ctx, duration.Seconds(),
			observability.String(observability.AttrStatus, status),
		)
	}
	return results, err
}

func (c *Client) search(ctx context.Context, observer observability.Provider, q string, count int) ([]SearchResult, error) {
	reqURL, err := c.buildURL(q, count)
	if err != nil {
		return nil, err
	}

	rateLimitRetries, networkRetries := 0, 0
	for attempt := 1; ; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, reqURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if networkRetries >= c.networkRetries {
				return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
			}
			networkRetries++
			delay := c.backoff(networkRetries - 1)
			c.noteRetry(ctx, observer, attempt, "network", delay, err)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, &MalformedResponseError{Err: readErr}
			}
			return decodeResults(body, count)

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: preview(body), Kind: ErrAuthentication}

		case resp.StatusCode == http.StatusTooManyRequests:
			if rateLimitRetries >= c.maxRetries {
				return nil, &APIError{StatusCode: resp.StatusCode, Body: preview(body), Kind: ErrRateLimited}
			}
			delay := c.backoff(rateLimitRetries)
			if hint, ok := retryHint(resp.Header); ok {
				delay = min(hint, c.maxBackoff)
			}
			rateLimitRetries++
			c.noteRetry(ctx, observer, attempt, "rate_limited", delay, nil)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}

		case resp.StatusCode >= 500:
			if networkRetries >= c.networkRetries {
				return nil, &APIError{StatusCode: resp.StatusCode, Body: preview(body), Kind: ErrNetwork}
			}
			networkRetries++
			delay := c.backoff(networkRetries - 1)
			c.noteRetry(ctx, observer, attempt, "server_error", delay, nil)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}

		default:
			return nil, &APIError{StatusCode: resp.StatusCode, Body: preview(body), Kind: ErrUnexpectedStatus}
		}
	}
}

func (c *Client) buildURL(q string, count int) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("brave search: invalid endpoint: %w", err)
	}
	params := u.Query()
	params.Set("q", q)
	params.Set("count", strconv.Itoa(count))
	params.Set("search_lang", c.searchLang)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// backoff returns min(initial * 2^n, max).
func (c *Client) backoff(n int) time.Duration {
	delay := c.initialBackoff
	for i := 0; i < n && delay < c.maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, c.maxBackoff)
}

func (c *Client) noteRetry(ctx context.Context, observer observability.Provider, attempt int, reason string, delay time.Duration, cause error) {
	if observer == nil {
		return
	}
	attrs := []observability.Attribute{
		observability.Int(observability.AttrSearchAttempt, attempt),
		observability.String(observability.AttrSearchErrorKind, reason),
		observability.Duration(observability.AttrSearchBackoff, delay),
	}
	if cause != nil {
		attrs = append(attrs, observability.Error(cause))
	}

	observer.Warn(ctx, "Retrying search request", attrs...)
	observer.Counter(observability.MetricSearchRetryCount).Add(ctx, 1,
		observability.String(observability.AttrSearchErrorKind, reason),
	)
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventSearchRetry, attrs...)
	}
}

func decodeResults(body []byte, count int) ([]SearchResult, error) {
	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Err: err, Preview: preview(body)}
	}
	if payload.Web == nil {
		return []SearchResult{}, nil
	}

	n := min(len(payload.Web.Results), count)
	results := make([]SearchResult, 0, n)
	for _, r := range payload.Web.Results[:n] {
		results = append(results, SearchResult{
			Title:       orDefault(cleanSnippet(r.Title), "No title"),
			URL:         orDefault(strings.TrimSpace(r.URL), "No URL"),
			Description: orDefault(cleanSnippet(r.Description), "No description"),
			Age:         r.Age,
		})
	}
	return results, nil
}

// retryHint reads Retry-After (seconds or HTTP date) and falls back to the
// smallest window of X-RateLimit-Reset, e.g. "1, 1419704".
func retryHint(h http.Header) (time.Duration, bool) {
	if raw := strings.TrimSpace(h.Get("Retry-After")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second, true
		}
		if at, err := http.ParseTime(raw); err == nil {
			if d := time.Until(at); d > 0 {
				return d, true
			}
		}
	}

	minReset := -1
	for _, part := range strings.Split(h.Get("X-RateLimit-Reset"), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		if minReset < 0 || n < minReset {
			minReset = n
		}
	}
	if minReset > 0 {
		return time.Duration(minReset) * time.Second, true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
