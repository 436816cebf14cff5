package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/service"
)

// OpenAICaptioner captions images through any OpenAI-compatible chat
// completions endpoint with vision support.
type OpenAICaptioner struct {
	client openai.Client
	model  string
}

func NewOpenAICaptioner(apiKey, baseURL, model string) *OpenAICaptioner {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICaptioner{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAICaptioner) Caption(ctx context.Context, img image.Image, maxTokens int) (string, error) {
	raw, err := service.EncodeJPEG(img, config.JPEGQuality)
	if err != nil {
		return "", err
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(captionInstruction),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from chat completion")
	}

	return resp.Choices[0].Message.Content, nil
}
