package telegram

import (
	"strings"
	"unicode/utf8"
)

// toMarkdownV1 rewrites the double-asterisk bold used by the shared replies
// into Telegram's legacy Markdown bold.
func toMarkdownV1(text string) string {
	return strings.ReplaceAll(text, "**", "*")
}

// fitMessage cuts text to the Telegram message limit.
func fitMessage(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	return string([]rune(text)[:maxLen-3]) + "..."
}
