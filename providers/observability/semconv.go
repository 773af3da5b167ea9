package observability

// Attribute keys, span names, event names and metric names shared by every
// component so that log records and dashboards line up.

// --- LLM ---

const (
	AttrLLMProvider     = "llm.provider"
	AttrLLMModel        = "llm.model"
	AttrLLMResponseID   = "llm.response.id"
	AttrLLMFinishReason = "llm.finish_reason"

	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- LLM tokens, not credentials
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- LLM tokens, not credentials
)

// --- Tools ---

const (
	AttrToolName     = "tool.name"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- Search ---

const (
	AttrSearchQuery      = "search.query"
	AttrSearchCount      = "search.count"
	AttrSearchResults    = "search.results"
	AttrSearchAttempt    = "search.attempt"
	AttrSearchBackoff    = "search.backoff"
	AttrSearchErrorKind  = "search.error_kind"
	AttrRateLimitWait    = "ratelimit.wait"
	AttrRateLimitPerSec  = "ratelimit.per_second"
	AttrAgentSessionID   = "agent.session_id"
	AttrAgentIterations  = "agent.iterations"
	AttrAgentMaxResults  = "agent.max_results"
	AttrRequestMessages  = "request.messages_count"
	AttrRequestToolCount = "request.tools_count"
)

// --- HTTP ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Memory ---

const (
	AttrMemoryMessageRole   = "memory.message.role"
	AttrMemoryMessageLength = "memory.message.length"
	AttrMemoryTotalMessages = "memory.total_messages"
)

// --- General ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanClientSendMessage = "client.send_message"
	SpanToolExecution     = "tool.execution"
	SpanSearchRequest     = "search.request"
	SpanReactExecute      = "react.execute"
	SpanAgentRun          = "agent.run"
)

// --- Event names ---

const (
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventSearchRetry        = "search.retry"
	EventSearchGateAcquired = "search.gate.acquired"
	EventMemoryAppend       = "memory.append"
	EventMemoryClear        = "memory.clear"
)

// --- Metric names ---

const (
	MetricClientRequestCount    = "client.requests.total"
	MetricClientTokensTotal     = "client.tokens.total" // #nosec G101 -- LLM tokens, not credentials
	MetricSearchRequestCount    = "search.requests.total"
	MetricSearchRetryCount      = "search.retries.total"
	MetricSearchRequestDuration = "search.request.duration.seconds"
	MetricRateLimitWait         = "ratelimit.wait.seconds"
	MetricToolExecutionCount    = "tool.executions.total"
	MetricReactExecutionCount   = "react.executions.total"
	MetricReactIterations       = "react.iterations"
)
