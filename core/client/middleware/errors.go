package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed. The last provider error is wrapped alongside it, so both
// errors.Is(err, ErrRetryExhausted) and errors.As on the cause work.
var ErrRetryExhausted = errors.New("researchagent: all retry attempts exhausted")
