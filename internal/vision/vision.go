// Package vision holds the captioning collaborators the pipeline can use.
package vision

import (
	"fmt"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
	"github.com/set-night/captionbot/internal/service"
)

const captionInstruction = "Describe the image in one short plain sentence, like an image caption. " +
	"No preamble, no markdown, no quotes."

// New builds the captioner selected by CAPTION_PROVIDER.
func New(cfg *config.Config) (service.Captioner, error) {
	switch cfg.CaptionProvider {
	case config.ProviderHuggingFace:
		return NewHuggingFaceCaptioner(cfg.HFToken, cfg.HFBaseURL, cfg.HFModel), nil
	case config.ProviderOpenAI:
		return NewOpenAICaptioner(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case config.ProviderAnthropic:
		return NewAnthropicCaptioner(cfg.AnthropicKey, cfg.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, cfg.CaptionProvider)
	}
}
