package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"userbot/internal/core/domain"

	"github.com/revrost/go-openrouter"
	"github.com/rs/zerolog/log"
)

var ErrEmptyCompletion = errors.New("model returned no choices")

type completionClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

type OpenRouter struct {
	client       completionClient
	model        string
	systemPrompt string
}

func NewOpenRouter(apiKey, model, systemPrompt string) *OpenRouter {
	return &OpenRouter{
		model:        model,
		systemPrompt: systemPrompt,
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("userbot"),
		),
	}
}

// GenerateFromPrompt sends the system prompt followed by prompts and returns the first completion.
func (c *OpenRouter) GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (string, error) {
	messages := make([]openrouter.ChatCompletionMessage, 0, len(prompts)+1)

	if c.systemPrompt != "" {
		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    openrouter.ChatMessageRoleSystem,
			Content: openrouter.Content{Text: c.systemPrompt},
		})
	}

	for _, prompt := range prompts {
		role := openrouter.ChatMessageRoleUser
		if prompt.Author == domain.AuthorSystem {
			role = openrouter.ChatMessageRoleAssistant
		}

		messages = append(messages, openrouter.ChatCompletionMessage{
			Role:    role,
			Content: openrouter.Content{Text: prompt.Prompt},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Messages: messages,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	event := log.Debug().Str("model", resp.Model)
	if resp.Usage != nil {
		event = event.
			Int("completionTokens", resp.Usage.CompletionTokens).
			Int("totalTokens", resp.Usage.TotalTokens)
	}
	event.Msg("completion received")

	return strings.TrimSpace(resp.Choices[0].Message.Content.Text), nil
}
