package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/beq-project/beq/pkg/config"
	"github.com/beq-project/beq/pkg/models"
)

// OpenAIProvider implements Provider over any OpenAI-compatible chat
// completions endpoint. A weighted semaphore bounds in-flight requests per
// process and transient upstream failures are retried with exponential
// backoff before surfacing to the caller.
type OpenAIProvider struct {
	client *openai.Client
	cfg    config.LLMConfig
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewOpenAIProvider builds a provider from configuration. The API key is
// read from the environment variable named by cfg.APIKeyEnv.
func NewOpenAIProvider(cfg config.LLMConfig, logger *slog.Logger) (*OpenAIProvider, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key environment variable %s is not set", cfg.APIKeyEnv)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: logger.With("component", "llm"),
	}, nil
}

// Complete sends one chat completion request. Retries are attempted only for
// transient failures (rate limits, 5xx, network errors); context
// cancellation and client errors surface immediately.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for completion slot: %w", err)
	}
	defer p.sem.Release(1)

	chatReq := p.buildRequest(req)

	var resp openai.ChatCompletionResponse
	operation := func() error {
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		p.logger.Warn("retrying LLM completion", "error", err)
		return err
	}

	policy := backoff.WithContext(p.retryPolicy(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return fromChoice(resp.Choices[0]), nil
}

func (p *OpenAIProvider) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.Retry.MinWait
	b.MaxInterval = p.cfg.Retry.MaxWait
	b.MaxElapsedTime = 0
	attempts := p.cfg.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

func (p *OpenAIProvider) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	var tools []openai.Tool
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Tools:       tools,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	switch m.Role {
	case models.RoleAssistant:
		msg.Role = openai.ChatMessageRoleAssistant
	case models.RoleTool:
		msg.Role = openai.ChatMessageRoleTool
	case models.RoleSystem:
		msg.Role = openai.ChatMessageRoleSystem
	default:
		msg.Role = openai.ChatMessageRoleUser
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: string(tc.Arguments),
			},
		})
	}
	return msg
}

func fromChoice(choice openai.ChatCompletionChoice) *Completion {
	out := &Completion{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}

// isRetryable classifies upstream errors. Rate limits and server-side
// failures are transient; everything else (bad request, auth) is permanent.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Raw transport errors (connection reset, EOF) arrive unwrapped.
	return true
}
