package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Logging returns middleware that logs each update with its upload kind and
// how long the handler took to accept it. Captioning itself runs detached,
// so this measures dispatch, not the model.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			info := describeUpdate(update)

			next(ctx, b, update)

			attrs := append(info.attrs(),
				"text_length", info.textLength,
				"dispatch", time.Since(start),
			)
			slog.Debug("update dispatched", attrs...)
		}
	}
}
