package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/service"
)

// AnthropicCaptioner captions images with a Claude vision model.
type AnthropicCaptioner struct {
	client anthropic.Client
	model  string
}

func NewAnthropicCaptioner(apiKey, model string, extra ...option.RequestOption) *AnthropicCaptioner {
	opts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, extra...)
	return &AnthropicCaptioner{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicCaptioner) Caption(ctx context.Context, img image.Image, maxTokens int) (string, error) {
	raw, err := service.EncodeJPEG(img, config.JPEGQuality)
	if err != nil {
		return "", err
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: captionInstruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/jpeg", base64.StdEncoding.EncodeToString(raw)),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
