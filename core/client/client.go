package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/researchagent/core/overview"
	"github.com/leofalp/researchagent/providers/ai"
	"github.com/leofalp/researchagent/providers/memory"
	"github.com/leofalp/researchagent/providers/observability"
	"github.com/leofalp/researchagent/providers/tool"
)

// Client is an immutable handle on one LLM conversation. It owns the provider,
// the optional memory, the tool catalog and the send middleware chain. Build it
// once with New and share it; it holds no per-request state of its own.
type Client struct {
	provider         ai.Provider
	memory           memory.Provider
	observer         observability.Provider
	toolCatalog      *tool.Catalog
	systemPrompt     string
	defaultModel     string
	generationConfig *ai.GenerationConfig
	send             SendFunc
}

// ClientOptions holds the values assembled by the With* functional options.
type ClientOptions struct {
	Memory           memory.Provider
	Observer         observability.Provider
	SystemPrompt     string
	DefaultModel     string
	Tools            []tool.GenericTool
	Middlewares      []MiddlewareConfig
	GenerationConfig *ai.GenerationConfig
}

// WithMemory stores every exchanged message so that later calls see the whole
// conversation. Without it each SendMessage is stateless.
func WithMemory(memory memory.Provider) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Memory = memory
	}
}

// WithObserver enables tracing, metrics and logs. The observability middleware
// is prepended to the chain so it sees the final outcome of every request.
func WithObserver(observer observability.Provider) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Observer = observer
	}
}

func WithSystemPrompt(prompt string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.SystemPrompt = prompt
	}
}

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.DefaultModel = model
	}
}

// WithTools registers tools advertised to the model on every request.
func WithTools(tools ...tool.GenericTool) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Tools = append(o.Tools, tools...)
	}
}

// WithMiddleware appends middlewares to the send chain. The first one added is
// the outermost wrapper.
func WithMiddleware(middlewares ...MiddlewareConfig) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Middlewares = append(o.Middlewares, middlewares...)
	}
}

func WithGenerationConfig(config ai.GenerationConfig) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.GenerationConfig = &config
	}
}

// New builds a Client around provider.
//
//	c, err := client.New(provider,
//	    client.WithMemory(inmemory.New()),
//	    client.WithObserver(observer),
//	    client.WithTools(searchTool),
//	)
func New(provider ai.Provider, opts ...func(*ClientOptions)) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client: provider cannot be nil")
	}

	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	for i, m := range options.Middlewares {
		if m.Send == nil {
			return nil, fmt.Errorf("client: middleware at index %d has a nil Send function", i)
		}
	}

	middlewares := options.Middlewares
	if options.Observer != nil {
		middlewares = append([]MiddlewareConfig{NewObservabilityMiddleware(options.Observer, options.DefaultModel)}, middlewares...)
	}

	return &Client{
		provider:         provider,
		memory:           options.Memory,
		observer:         options.Observer,
		toolCatalog:      tool.NewCatalog(options.Tools...),
		systemPrompt:     options.SystemPrompt,
		defaultModel:     options.DefaultModel,
		generationConfig: options.GenerationConfig,
		send:             buildSendChain(provider, middlewares),
	}, nil
}

// Provider returns the underlying LLM provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Memory returns the conversation memory, or nil for a stateless client.
func (c *Client) Memory() memory.Provider {
	return c.memory
}

// Observer returns the configured observer, or nil.
func (c *Client) Observer() observability.Provider {
	return c.observer
}

// ToolCatalog returns the tools advertised to the model.
func (c *Client) ToolCatalog() *tool.Catalog {
	return c.toolCatalog
}

// sendOptions are per-call overrides.
type sendOptions struct {
	model            string
	generationConfig *ai.GenerationConfig
}

// SendMessageOption customizes a single SendMessage or ContinueConversation call.
type SendMessageOption func(*sendOptions)

// WithModel overrides the default model for one call.
func WithModel(model string) SendMessageOption {
	return func(o *sendOptions) {
		o.model = model
	}
}

// WithCallGenerationConfig overrides the generation settings for one call.
func WithCallGenerationConfig(config ai.GenerationConfig) SendMessageOption {
	return func(o *sendOptions) {
		o.generationConfig = &config
	}
}

// SendMessage appends prompt as a user turn and sends the conversation to the
// model. The assistant reply is stored in memory when memory is configured.
// Tool calls in the reply are not executed here; see patterns/react.
func (c *Client) SendMessage(ctx context.Context, prompt string, opts ...SendMessageOption) (*ai.ChatResponse, error) {
	if prompt == "" {
		return nil, errors.New("prompt cannot be empty; use ContinueConversation() to resume from memory")
	}

	userMessage := ai.Message{Role: ai.RoleUser, Content: prompt}

	var messages []ai.Message
	if c.memory != nil {
		c.memory.AppendMessage(ctx, &userMessage)
		all, err := c.memory.AllMessages(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read memory: %w", err)
		}
		messages = all
	} else {
		messages = []ai.Message{userMessage}
	}

	return c.sendRequest(ctx, messages, opts)
}

// ContinueConversation sends the stored conversation as-is, typically after
// tool results have been appended to memory.
func (c *Client) ContinueConversation(ctx context.Context, opts ...SendMessageOption) (*ai.ChatResponse, error) {
	if c.memory == nil {
		return nil, errors.New("ContinueConversation requires a memory provider; configure the client with WithMemory()")
	}

	messages, err := c.memory.AllMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory: %w", err)
	}
	if len(messages) == 0 {
		return nil, errors.New("cannot continue an empty conversation; call SendMessage first")
	}

	return c.sendRequest(ctx, messages, opts)
}

func (c *Client) sendRequest(ctx context.Context, messages []ai.Message, opts []SendMessageOption) (*ai.ChatResponse, error) {
	callOptions := &sendOptions{
		model:            c.defaultModel,
		generationConfig: c.generationConfig,
	}
	for _, opt := range opts {
		opt(callOptions)
	}

	request := ai.ChatRequest{
		Model:            callOptions.model,
		Messages:         messages,
		SystemPrompt:     c.systemPrompt,
		Tools:            c.toolCatalog.Descriptions(),
		GenerationConfig: callOptions.generationConfig,
	}

	ov := overview.OverviewFromContext(&ctx)
	ov.AddRequest(&request)

	response, err := c.send(ctx, request)
	if err != nil {
		return nil, err
	}

	ov.AddResponse(response)
	ov.IncludeUsage(response.Usage)
	ov.AddToolCalls(response.ToolCalls)

	if c.memory != nil {
		c.memory.AppendMessage(ctx, &ai.Message{
			Role:      ai.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
			Refusal:   response.Refusal,
		})
	}

	return response, nil
}
