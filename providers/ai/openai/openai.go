package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/leofalp/researchagent/internal/jsonschema"
	"github.com/leofalp/researchagent/providers/ai"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

// Provider talks to an OpenAI-compatible endpoint.
type Provider struct {
	client oai.Client
	model  string
}

var _ ai.Provider = (*Provider)(nil)

type config struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*config)

func WithAPIKey(apiKey string) Option {
	return func(c *config) { c.apiKey = apiKey }
}

func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = baseURL }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) { c.httpClient = httpClient }
}

// New builds a provider. The API key is required.
func New(opts ...Option) (*Provider, error) {
	cfg := config{baseURL: DefaultBaseURL, model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(cfg.apiKey) == "" {
		return nil, errors.New("openai: API key cannot be empty")
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey),
		option.WithBaseURL(cfg.baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Provider{
		client: oai.NewClient(clientOpts...),
		model:  cfg.model,
	}, nil
}

// SendMessage sends request to /chat/completions.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	params, err := p.buildParams(request)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, convertError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ai.ProviderError{Provider: ProviderName, Message: "response contained no choices"}
	}

	choice := resp.Choices[0]
	out := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Created:      resp.Created,
		Content:      choice.Message.Content,
		Refusal:      choice.Message.Refusal,
		FinishReason: string(choice.FinishReason),
		Usage: &ai.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out, nil
}

// IsStopMessage reports a completion that requests no tools.
func (p *Provider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if len(message.ToolCalls) > 0 {
		return false
	}
	return message.FinishReason != "tool_calls"
}

func (p *Provider) buildParams(request ai.ChatRequest) (oai.ChatCompletionNewParams, error) {
	model := request.Model
	if model == "" {
		model = p.model
	}

	params := oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(model),
		Messages: convertMessages(request.SystemPrompt, request.Messages),
	}

	if gc := request.GenerationConfig; gc != nil {
		if gc.MaxTokens > 0 {
			params.MaxCompletionTokens = oai.Int(int64(gc.MaxTokens))
		}
		if gc.Temperature > 0 {
			params.Temperature = oai.Float(float64(gc.Temperature))
		}
	}

	for _, t := range request.Tools {
		schema, err := jsonschema.ToMap(t.Parameters)
		if err != nil {
			return params, fmt.Errorf("openai: tool %s: %w", t.Name, err)
		}
		function := oai.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: schema,
		}
		if t.Description != "" {
			function.Description = oai.String(t.Description)
		}
		params.Tools = append(params.Tools, oai.ChatCompletionToolUnionParam{
			OfFunction: &oai.ChatCompletionFunctionToolParam{Function: function},
		})
	}
	return params, nil
}

func convertMessages(systemPrompt string, messages []ai.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, oai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			out = append(out, oai.SystemMessage(msg.Content))
		case ai.RoleUser:
			out = append(out, oai.UserMessage(msg.Content))
		case ai.RoleTool:
			out = append(out, oai.ToolMessage(msg.Content, msg.ToolCallID))
		case ai.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, oai.AssistantMessage(msg.Content))
				continue
			}
			assistant := oai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = oai.ChatCompletionAssistantMessageParamContentUnion{OfString: oai.String(msg.Content)}
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, oai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &oai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: oai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					},
				})
			}
			out = append(out, oai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

// convertError maps SDK failures onto ai.ProviderError. Context errors pass
// through so callers can distinguish cancellation.
func convertError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(apiErr.StatusCode)
		}
		return &ai.ProviderError{Provider: ProviderName, StatusCode: apiErr.StatusCode, Message: message}
	}
	return fmt.Errorf("openai: request failed: %w", err)
}
