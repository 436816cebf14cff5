//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_handler.go -package=mocks
package handler

import (
	"context"

	"github.com/set-night/captionbot/internal/domain"
)

// Messenger is the outbound side of a chat platform.
type Messenger interface {
	SendText(ctx context.Context, channelID, text string) (domain.MessageRef, error)
	EditText(ctx context.Context, ref domain.MessageRef, text string) error
}

// Typer is implemented by messengers that can show a typing indicator.
type Typer interface {
	StartTyping(ctx context.Context, channelID string) (stop func())
}

// Pipeline turns attachment bytes into a caption result.
type Pipeline interface {
	Process(ctx context.Context, raw []byte) (*domain.CaptionResult, error)
}

// ErrorReporter forwards failures to operators.
type ErrorReporter interface {
	LogError(err error, context string)
}
