package handler

import (
	"fmt"

	"github.com/set-night/captionbot/internal/domain"
)

// User-facing texts. Their wording is part of the bot's contract.
// ReplyHelp is the help text for the default "!" prefix; see helpText.
const (
	ReplyHelp = "Commands:\n" +
		"!image → bot asks you to upload a picture\n" +
		"!help  → show this message"
	ReplyAskImage   = "Okay! Please upload the image now."
	ReplyRejected   = "Please send a valid image file (jpg/png/webp/bmp)."
	ReplyProcessing = "Processing image... (this may take 5–30s on CPU)"
	ReplyFailure    = "❌ Sorry, an error occurred while processing the image."
	ReplyReminder   = "Waiting for an image — please upload a photo in this channel."
)

// helpText lists the commands under the configured prefix.
func helpText(prefix string) string {
	return "Commands:\n" +
		prefix + CommandImage + " → bot asks you to upload a picture\n" +
		prefix + CommandHelp + "  → show this message"
}

// FormatResult renders a caption and its tags.
func FormatResult(result *domain.CaptionResult) string {
	return fmt.Sprintf("**Caption:** %s\n\n**Tags:** %s", result.Caption, result.TagsString())
}
