package config

import "time"

const (
	// Image normalization
	MaxImageSide = 800
	JPEGQuality  = 90

	// Decoded raster budget; larger declared sizes are rejected before decoding
	MaxImagePixels = 50_000_000

	// Caption model request
	MaxCaptionTokens = 40

	// Tag extraction
	MaxTags = 3

	// Outbound message timeout
	SendTimeout = 10 * time.Second

	// Platform message limits
	MaxTelegramMessageLen = 4096
	MaxDiscordMessageLen  = 2000

	// Typing indicator refresh
	TypingInterval    = 4 * time.Second
	TypingMaxDuration = 5 * time.Minute

	// Attachment download limit (Discord free upload ceiling, above Telegram's 20 MB bot download cap)
	MaxAttachmentBytes = 25 << 20
)

// ImageExtensions accepted by the filename gate.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"}

// Stopwords never emitted as tags.
var Stopwords = []string{"a", "an", "the", "and", "is", "in", "on", "of", "to", "with", "for", "by"}
