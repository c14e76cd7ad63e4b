package model

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultBaseURL is the GitHub Models inference endpoint.
const DefaultBaseURL = "https://models.github.ai/inference"

// OpenAIConfig configures an OpenAI-compatible chat client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // Default: GitHub Models
	Model       string // e.g., "openai/gpt-4o-mini"
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIClient implements Model using the official OpenAI Go SDK.
type OpenAIClient struct {
	cfg    *OpenAIConfig
	client *openai.Client
}

// NewOpenAIClient creates a new client. Retries are disabled: a failed call
// is reported to the caller, which decides what to do.
func NewOpenAIClient(cfg *OpenAIConfig) *OpenAIClient {
	if cfg == nil {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append(opts, option.WithBaseURL(baseURL))
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{cfg: cfg, client: &client}
}

// Generate sends the request as a chat completion and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("openai client not initialized")
	}
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Model),
		Messages: messages,
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &Response{
		Text:       completion.Choices[0].Message.Content,
		TokensUsed: int(completion.Usage.TotalTokens),
		Model:      completion.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// IsAvailable checks if the client is configured.
func (c *OpenAIClient) IsAvailable() bool {
	return c != nil && c.cfg != nil && c.cfg.APIKey != ""
}

// Name returns the model name.
func (c *OpenAIClient) Name() string {
	if c != nil && c.cfg != nil {
		return c.cfg.Model
	}
	return "openai"
}
