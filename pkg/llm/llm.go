package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
)

// DefaultTimeout bounds a single completion request
const DefaultTimeout = 60 * time.Second

var (
	// ErrCredentialMissing is returned when no API key was configured
	ErrCredentialMissing = errors.New("OPENAI_API_KEY is not configured")
	// ErrEmptyCompletion is returned when the upstream reply has no choices
	ErrEmptyCompletion = errors.New("completion returned no choices")
)

// Usage reports token accounting from the upstream API
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Completion is the assistant reply to a conversation
type Completion struct {
	Model   string
	Content string
	Usage   Usage
}

// Completer produces the next assistant message for a conversation
type Completer interface {
	Complete(ctx context.Context, modelName string, messages []model.Message) (*Completion, error)
}

// UpstreamError carries the HTTP status returned by the upstream API
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %v", e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config configures the OpenAI client
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIClient implements Completer on the OpenAI chat completions API
type OpenAIClient struct {
	client *openai.Client
	hasKey bool
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. An empty API key is accepted.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		hasKey: cfg.APIKey != "",
	}
}

// Complete sends the conversation and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, modelName string, messages []model.Message) (*Completion, error) {
	if !c.hasKey {
		return nil, ErrCredentialMissing
	}

	req := openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Err: err}
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	return &Completion{
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
