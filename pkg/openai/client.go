package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ryan02062001/thankaroo-backend/pkg/config"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("openai api key is required")

// Client wraps the hosted chat-completion API behind the small surface the
// drafting service needs.
type Client struct {
	api   *openai.Client
	model string
}

// Completer is the interface consumed by the drafting service.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewClient initializes the OpenAI client with the configured key and model.
func NewClient(ctx context.Context, cfg config.OpenAIConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4oMini
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("openai client initialized (%s)", model))
	}

	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}, nil
}

// Complete runs a single chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
