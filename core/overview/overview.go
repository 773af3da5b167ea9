package overview

import (
	"context"
	"time"

	"github.com/leofalp/researchagent/providers/ai"
)

type contextKey string

const overviewContextKey contextKey = "overview"

// Overview aggregates token usage, tool statistics and the request/response
// history of one execution.
type Overview struct {
	LastResponse   *ai.ChatResponse   `json:"last_response,omitempty"`
	Requests       []*ai.ChatRequest  `json:"requests"`
	Responses      []*ai.ChatResponse `json:"responses"`
	TotalUsage     ai.Usage           `json:"total_usage"`
	ToolCallStats  map[string]int     `json:"tool_calls,omitempty"`
	ToolErrorStats map[string]int     `json:"tool_errors,omitempty"`
	Iterations     int                `json:"iterations,omitempty"`

	ExecutionStartTime time.Time `json:"execution_start_time,omitempty"`
	ExecutionEndTime   time.Time `json:"execution_end_time,omitempty"`
}

// StructuredOverview pairs the execution statistics with the parsed final answer.
type StructuredOverview[T any] struct {
	Overview
	Data *T `json:"data,omitempty"`
}

// OverviewFromContext returns the Overview stored in ctx. When none is stored,
// or the stored value has the wrong type, a new one is created and *ctx is
// replaced with a context carrying it.
func OverviewFromContext(ctx *context.Context) *Overview {
	if overview, ok := (*ctx).Value(overviewContextKey).(*Overview); ok && overview != nil {
		return overview
	}

	overview := &Overview{}
	*ctx = overview.ToContext(*ctx)
	return overview
}

// ToContext stores the Overview in ctx.
func (overview *Overview) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, overviewContextKey, overview)
}

func (overview *Overview) IncludeUsage(usage *ai.Usage) {
	if usage == nil {
		return
	}
	overview.TotalUsage.PromptTokens += usage.PromptTokens
	overview.TotalUsage.CompletionTokens += usage.CompletionTokens
	overview.TotalUsage.TotalTokens += usage.TotalTokens
}

// AddToolCalls counts requested tool invocations by name.
func (overview *Overview) AddToolCalls(tools []ai.ToolCall) {
	if len(tools) == 0 {
		return
	}
	if overview.ToolCallStats == nil {
		overview.ToolCallStats = make(map[string]int)
	}
	for _, tool := range tools {
		overview.ToolCallStats[tool.Function.Name]++
	}
}

// AddToolError counts a failed tool invocation.
func (overview *Overview) AddToolError(toolName string) {
	if overview.ToolErrorStats == nil {
		overview.ToolErrorStats = make(map[string]int)
	}
	overview.ToolErrorStats[toolName]++
}

func (overview *Overview) AddRequest(request *ai.ChatRequest) {
	overview.Requests = append(overview.Requests, request)
}

// AddResponse appends response to the history and makes it the LastResponse.
func (overview *Overview) AddResponse(response *ai.ChatResponse) {
	overview.Responses = append(overview.Responses, response)
	overview.LastResponse = response
}

func (overview *Overview) StartExecution() {
	overview.ExecutionStartTime = time.Now()
}

func (overview *Overview) EndExecution() {
	overview.ExecutionEndTime = time.Now()
}

// ExecutionDuration returns 0 until both StartExecution and EndExecution ran.
func (overview *Overview) ExecutionDuration() time.Duration {
	if overview.ExecutionStartTime.IsZero() || overview.ExecutionEndTime.IsZero() {
		return 0
	}
	return overview.ExecutionEndTime.Sub(overview.ExecutionStartTime)
}
