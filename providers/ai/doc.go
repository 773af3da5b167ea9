// Package ai defines the provider-agnostic chat model shared by the client,
// the ReAct loop and every LLM provider implementation.
//
// Requests flow through [ChatRequest] and come back as [ChatResponse]. A
// provider implements [Provider] and maps these types to its own wire format.
// Failures reported by a remote API are surfaced as [*ProviderError] so that
// retry policies can classify them with [StatusCode] without knowing which
// provider produced them.
package ai
