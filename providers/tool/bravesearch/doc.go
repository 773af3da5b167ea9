// Package bravesearch is a rate-limited, retrying client for the Brave Search
// web endpoint, plus the "search_web" tool that exposes it to an LLM.
//
// Every HTTP attempt first acquires a permit from a [ratelimit.Gate]; by
// default all clients share [ratelimit.Shared], which admits one request per
// second process-wide. Responses are classified as follows:
//
//   - 401/403: [ErrAuthentication], returned immediately.
//   - 429: retried with bounded exponential backoff (or the server's reset
//     hint), then [ErrRateLimited].
//   - 5xx and transport failures: retried a few times, then [ErrNetwork].
//   - an undecodable body: [*MalformedResponseError], never retried.
//
// The API key is only ever placed in the X-Subscription-Token header and never
// appears in errors or log records.
package bravesearch
