package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/set-night/captionbot/internal/domain"
)

const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"

	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
)

type Config struct {
	// Core
	Platform      string `env:"PLATFORM" envDefault:"discord"`
	DiscordToken  string `env:"DISCORD_BOT_TOKEN"`
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// Captioning
	CaptionProvider string        `env:"CAPTION_PROVIDER" envDefault:"huggingface"`
	CaptionTimeout  time.Duration `env:"CAPTION_TIMEOUT" envDefault:"60s"`

	// Provider: Hugging Face inference (BLIP)
	HFToken   string `env:"HF_API_TOKEN"`
	HFBaseURL string `env:"HF_BASE_URL" envDefault:"https://router.huggingface.co/hf-inference/models"`
	HFModel   string `env:"HF_MODEL" envDefault:"Salesforce/blip-image-captioning-base"`

	// Provider: OpenAI-compatible vision chat
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Provider: Anthropic
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`

	// Bot behavior
	DedupTTL time.Duration `env:"DEDUP_TTL" envDefault:"5m"`

	// Logging
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	LogTelegramChatID int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int    `env:"LOG_TOPIC_ERROR"`
}

// Load reads an optional .env file and then the process environment.
// Every failure is reported as domain.ErrConfig.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: load .env: %w", domain.ErrConfig, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", domain.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the platform credential and provider settings.
func (c *Config) Validate() error {
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	c.CaptionProvider = strings.ToLower(strings.TrimSpace(c.CaptionProvider))

	switch c.Platform {
	case PlatformDiscord:
		if c.DiscordToken == "" {
			return fmt.Errorf("%w: set DISCORD_BOT_TOKEN environment variable", domain.ErrConfig)
		}
	case PlatformTelegram:
		if c.TelegramToken == "" {
			return fmt.Errorf("%w: set TELEGRAM_BOT_TOKEN environment variable", domain.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: %w: %q", domain.ErrConfig, domain.ErrUnsupportedPlatform, c.Platform)
	}

	switch c.CaptionProvider {
	case ProviderHuggingFace:
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY environment variable", domain.ErrConfig)
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable", domain.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: %w: %q", domain.ErrConfig, domain.ErrUnsupportedProvider, c.CaptionProvider)
	}

	if c.CommandPrefix == "" {
		return fmt.Errorf("%w: COMMAND_PREFIX must not be empty", domain.ErrConfig)
	}
	if c.CaptionTimeout <= 0 {
		return fmt.Errorf("%w: CAPTION_TIMEOUT must be positive", domain.ErrConfig)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
