package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leofalp/researchagent/core/parse"
	"github.com/leofalp/researchagent/internal/jsonschema"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/observability"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Tool binds a name and description to a strongly-typed function.
// Use [NewTool] to construct one.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the type-erased view of a [Tool] used by catalogs, clients
// and patterns.
type GenericTool interface {
	// ToolInfo returns the metadata advertised to the model.
	ToolInfo() ai.ToolDescription

	// Call runs the tool with JSON-encoded arguments and returns the
	// JSON-encoded output.
	Call(ctx context.Context, inputJson string) (string, error)
}

type funcToolOptions struct {
	Description string
}

// WithDescription sets the description the model sees when deciding whether
// to call the tool.
func WithDescription(description string) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Description = description
	}
}

// NewTool constructs a [Tool]. The parameter schema is derived from I.
//
//	search := tool.NewTool("search_web", client.searchTool,
//	    tool.WithDescription("Search the web."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(tool *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.GenerateJSONSchema[I](),
		Function:    function,
	}
}

func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call decodes inputJson into I, validates it, runs the function and encodes
// the result. Span events are emitted when a span is present in ctx and an
// execution counter is incremented when an observer is.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, observability.TruncateString(inputJson, observability.DefaultMaxStringLength)),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	start := time.Now()
	output, err := t.call(ctx, inputJson)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if observer != nil {
		observer.Counter(observability.MetricToolExecutionCount).Add(ctx, 1,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrStatus, status),
		)
	}

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(
				observability.String(observability.AttrToolError, err.Error()),
				observability.Duration(observability.AttrToolDuration, duration),
			)
		} else {
			span.SetAttributes(
				observability.String(observability.AttrToolOutput, observability.TruncateString(output, observability.DefaultMaxStringLength)),
				observability.Duration(observability.AttrToolDuration, duration),
			)
		}
	}
	return output, err
}

func (t *Tool[I, O]) call(ctx context.Context, inputJson string) (string, error) {
	parsedInput, err := parse.ParseStringAs[I](inputJson)
	if err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.Name, err)
	}

	if isStruct(parsedInput) {
		if err := validate.StructCtx(ctx, parsedInput); err != nil {
			return "", fmt.Errorf("invalid arguments for %s: %w", t.Name, err)
		}
	}

	output, err := t.Function(ctx, parsedInput)
	if err != nil {
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("encode %s output: %w", t.Name, err)
	}
	return string(outputBytes), nil
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}
