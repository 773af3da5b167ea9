// Package openai implements [ai.Provider] for OpenAI-compatible chat
// completion endpoints on top of github.com/openai/openai-go.
//
// Any server that speaks the /chat/completions protocol works; point
// [WithBaseURL] at it. SDK-level retries are disabled so that retry policy is
// owned by the client middleware, and API failures are converted to
// [*ai.ProviderError] without echoing request headers.
package openai
