package client

import (
	"context"
	"time"

	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/observability"
)

const responsePreviewLength = 100

// NewObservabilityMiddleware wraps every LLM request in a span, counts requests
// and tokens, and logs the outcome. The span and observer are put on the
// context before next is called so providers and tools can find them.
//
// New prepends it automatically when WithObserver is set.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) MiddlewareConfig {
	return MiddlewareConfig{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				model := effectiveModel(request.Model, defaultModel)

				ctx, span := observer.StartSpan(ctx, observability.SpanClientSendMessage,
					observability.String(observability.AttrLLMModel, model),
					observability.Int(observability.AttrRequestMessages, len(request.Messages)),
					observability.Int(observability.AttrRequestToolCount, len(request.Tools)),
				)
				defer span.End()
				ctx = observability.ContextWithObserver(ctx, observer)

				observer.Debug(ctx, "llm send",
					observability.String(observability.AttrLLMModel, model),
					observability.Int(observability.AttrRequestMessages, len(request.Messages)),
				)

				start := time.Now()
				response, err := next(ctx, request)
				elapsed := time.Since(start)

				if err != nil {
					span.RecordError(err)
					span.SetStatus(observability.StatusError, "llm send failed")

					observer.Error(ctx, "llm send failed",
						observability.Error(err),
						observability.Duration(observability.AttrDuration, elapsed),
						observability.String(observability.AttrLLMModel, model),
					)
					observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
						observability.String(observability.AttrStatus, "error"),
						observability.String(observability.AttrLLMModel, model),
					)
					return nil, err
				}

				recordSuccess(ctx, span, observer, response, elapsed, model)
				return response, nil
			}
		},
	}
}

func recordSuccess(ctx context.Context, span observability.Span, observer observability.Provider, response *ai.ChatResponse, elapsed time.Duration, model string) {
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, model),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Duration(observability.AttrDuration, elapsed),
	}

	if response.Id != "" {
		span.SetAttributes(observability.String(observability.AttrLLMResponseID, response.Id))
	}

	if response.Usage != nil {
		observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(response.Usage.TotalTokens),
			observability.String(observability.AttrLLMModel, model),
		)

		tokenAttrs := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		}
		span.SetAttributes(tokenAttrs...)
		logAttrs = append(logAttrs, tokenAttrs...)
	}

	for _, call := range response.ToolCalls {
		logAttrs = append(logAttrs, observability.String(observability.AttrToolName, call.Function.Name))
	}

	if response.Content != "" {
		logAttrs = append(logAttrs,
			observability.String("response", observability.TruncateString(response.Content, responsePreviewLength)),
		)
	}

	observer.Info(ctx, "llm send completed", logAttrs...)
	span.SetStatus(observability.StatusOK, "success")
}

// effectiveModel prefers the request model and falls back to the client default.
// Both empty is valid: the provider picks.
func effectiveModel(requestModel, defaultModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return defaultModel
}
