package research

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/researchagent/internal/config"
	"github.com/leofalp/researchagent/providers/tool/bravesearch"
)

// UserAgent is sent with every search request.
const UserAgent = "Brave-Search-Research-Agent/1.0"

const (
	maxIdleConns        = 5
	maxConnsPerHost     = 10
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// Dependencies are the external resources one research session needs.
// Release them with Close.
type Dependencies struct {
	BraveAPIKey string
	HTTPClient  *http.Client
	SessionID   string

	closeOnce sync.Once
}

// NewDependencies builds a pooled HTTP client for the search API whose
// timeout is settings.SearchTimeout. When sessionID is empty a random one is
// generated.
func NewDependencies(settings *config.Settings, sessionID string) (*Dependencies, error) {
	if settings == nil {
		return nil, errors.New("research: settings cannot be nil")
	}
	if strings.TrimSpace(settings.BraveAPIKey) == "" {
		return nil, bravesearch.ErrMissingAPIKey
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	timeout := settings.SearchTimeout
	if timeout <= 0 {
		timeout = config.DefaultSearchTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Dependencies{
		BraveAPIKey: settings.BraveAPIKey,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SessionID: sessionID,
	}, nil
}

// Close releases idle connections. It is safe to call more than once.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		if d.HTTPClient != nil {
			d.HTTPClient.CloseIdleConnections()
		}
	})
}
