package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/researchagent/core/client"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/observability"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs the model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the first message and the response content, each
	// truncated. It logs raw prompt text: keep it out of production.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware logs every provider call before and after it runs.
// logger must not be nil; pass slog.Default() when in doubt.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

				start := time.Now()
				response, err := next(ctx, request)
				elapsed := time.Since(start)

				if err != nil {
					logger.ErrorContext(ctx, "llm send failed",
						slog.String("model", request.Model),
						slog.Duration("duration", elapsed),
						slog.String("error", err.Error()),
					)
					return nil, err
				}

				logger.InfoContext(ctx, "llm send completed", responseAttrs(response, elapsed, level)...)
				return response, nil
			}
		},
	}
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		first := request.Messages[0]
		attrs = append(attrs,
			slog.String("first_message_role", string(first.Role)),
			slog.String("first_message_content", observability.TruncateString(first.Content, truncateLen)),
		)
	}

	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}

	if level >= LogLevelStandard {
		if response.FinishReason != "" {
			attrs = append(attrs, slog.String("finish_reason", response.FinishReason))
		}
		if len(response.ToolCalls) > 0 {
			attrs = append(attrs, slog.Int("tool_calls", len(response.ToolCalls)))
		}
	}

	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs,
			slog.String("response_content", observability.TruncateString(response.Content, truncateLen)),
		)
	}

	return attrs
}
