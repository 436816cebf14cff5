//go:generate go run go.uber.org/mock/mockgen -source=captioner.go -destination=../mocks/mock_captioner.go -package=mocks
package service

import (
	"context"
	"image"
)

// Captioner is the vision-to-text collaborator. Implementations return the
// raw generated text, limited to maxTokens new tokens.
type Captioner interface {
	Caption(ctx context.Context, img image.Image, maxTokens int) (string, error)
}
