package react

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/core/overview"
	"github.com/leofalp/researchagent/core/parse"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/observability"
)

const DefaultMaxIterations = 10

// ErrMaxIterations is returned when the model keeps requesting tools after the
// iteration budget is spent.
var ErrMaxIterations = errors.New("react: maximum iterations reached without a final answer")

// ReAct drives the reason/act loop on top of a client and parses the final
// answer into T.
type ReAct[T any] struct {
	client        *client.Client
	maxIterations int
	stopOnError   bool
}

type Option func(*options)

type options struct {
	maxIterations int
	stopOnError   bool
}

// WithMaxIterations bounds the number of LLM round trips. Non-positive values
// keep the default.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithStopOnError aborts the loop on the first failing tool instead of
// reporting the failure back to the model.
func WithStopOnError(stop bool) Option {
	return func(o *options) {
		o.stopOnError = stop
	}
}

// New wraps baseClient. The client must have memory: the loop feeds tool
// results back through it.
func New[T any](baseClient *client.Client, opts ...Option) (*ReAct[T], error) {
	if baseClient == nil {
		return nil, errors.New("react: client cannot be nil")
	}
	if baseClient.Memory() == nil {
		return nil, errors.New("react: client must be configured with memory (client.WithMemory)")
	}

	o := options{maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&o)
	}

	return &ReAct[T]{
		client:        baseClient,
		maxIterations: o.maxIterations,
		stopOnError:   o.stopOnError,
	}, nil
}

// Execute sends prompt and keeps executing requested tools until the model
// stops asking for them. The returned overview is non-nil whenever at least
// one request was made, even on error.
func (r *ReAct[T]) Execute(ctx context.Context, prompt string) (*overview.StructuredOverview[T], error) {
	observer := r.client.Observer()
	if observer == nil {
		observer = observability.ObserverFromContext(ctx)
	}

	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanReactExecute,
			observability.Int(observability.AttrAgentIterations, r.maxIterations),
		)
		defer span.End()
		ctx = observability.ContextWithObserver(ctx, observer)
	}

	ov := overview.OverviewFromContext(&ctx)
	ov.StartExecution()
	defer ov.EndExecution()

	result, err := r.loop(ctx, ov, prompt)

	if observer != nil {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "react execution failed")
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		span.SetAttributes(observability.Int(observability.AttrAgentIterations, ov.Iterations))
		observer.Counter(observability.MetricReactExecutionCount).Add(ctx, 1,
			observability.String(observability.AttrStatus, status),
		)
		observer.Histogram(observability.MetricReactIterations).Record(ctx, float64(ov.Iterations))
	}

	return result, err
}

func (r *ReAct[T]) loop(ctx context.Context, ov *overview.Overview, prompt string) (*overview.StructuredOverview[T], error) {
	structured := func(data *T) *overview.StructuredOverview[T] {
		return &overview.StructuredOverview[T]{Overview: *ov, Data: data}
	}

	for ov.Iterations < r.maxIterations {
		var response *ai.ChatResponse
		var err error
		if ov.Iterations == 0 {
			response, err = r.client.SendMessage(ctx, prompt)
		} else {
			response, err = r.client.ContinueConversation(ctx)
		}
		ov.Iterations++
		if err != nil {
			return structured(nil), err
		}

		if len(response.ToolCalls) == 0 || r.client.Provider().IsStopMessage(response) {
			data, err := parse.ParseStringAs[T](response.Content)
			if err != nil {
				return structured(nil), fmt.Errorf("react: failed to parse final answer: %w", err)
			}
			return structured(&data), nil
		}

		for _, call := range response.ToolCalls {
			if err := r.executeTool(ctx, ov, call); err != nil {
				return structured(nil), err
			}
		}
	}

	return structured(nil), fmt.Errorf("%w (%d)", ErrMaxIterations, r.maxIterations)
}

// executeTool runs one tool call and appends its result to memory. Failures
// are reported to the model as ToolResult payloads unless stopOnError is set.
func (r *ReAct[T]) executeTool(ctx context.Context, ov *overview.Overview, call ai.ToolCall) error {
	name := call.Function.Name

	var content string
	t, ok := r.client.ToolCatalog().Get(name)
	if !ok {
		ov.AddToolError(name)
		if r.stopOnError {
			return fmt.Errorf("react: tool %q not found", name)
		}
		content = toolErrorPayload(ai.ToolErrorNotFound, fmt.Sprintf("tool %q is not available", name))
	} else {
		output, err := t.Call(ctx, call.Function.Arguments)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			ov.AddToolError(name)
			if r.stopOnError {
				return fmt.Errorf("react: tool %q failed: %w", name, err)
			}
			content = toolErrorPayload(ai.ToolErrorExecutionFailed, err.Error())
		default:
			content = output
		}
	}

	r.client.Memory().AppendMessage(ctx, &ai.Message{
		Role:       ai.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		Name:       name,
	})
	return nil
}

func toolErrorPayload(errorType, message string) string {
	payload, err := ai.NewToolResultError(errorType, message).ToJSON()
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, errorType)
	}
	return payload
}
