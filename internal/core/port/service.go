package port

import (
	"context"
	"userbot/internal/core/domain"
)

type PasteService interface {
	// Submit uploads text and returns the URL it can be read at.
	Submit(ctx context.Context, text string) (string, error)
}

type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (string, error)
}
