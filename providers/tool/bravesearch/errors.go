package bravesearch

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey     = errors.New("brave search: API key cannot be empty")
	ErrEmptyQuery        = errors.New("brave search: query is empty")
	ErrAuthentication    = errors.New("brave search: authentication failed")
	ErrRateLimited       = errors.New("brave search: rate limit exceeded")
	ErrNetwork           = errors.New("brave search: network error")
	ErrMalformedResponse = errors.New("brave search: malformed response")
	ErrUnexpectedStatus  = errors.New("brave search: unexpected status")
)

// maxBodyPreview bounds how much of an error body is kept in APIError.
const maxBodyPreview = 200

// APIError is a non-200 answer from the search endpoint. Kind is one of the
// package sentinels and is what errors.Is matches against.
type APIError struct {
	StatusCode int
	Body       string
	Kind       error
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// MalformedResponseError reports a 200 response whose body could not be
// decoded.
type MalformedResponseError struct {
	Err     error
	Preview string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Err)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

func preview(body []byte) string {
	runes := []rune(string(body))
	if len(runes) <= maxBodyPreview {
		return string(runes)
	}
	return string(runes[:maxBodyPreview]) + "..."
}
