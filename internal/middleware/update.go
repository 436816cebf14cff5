package middleware

import (
	"log/slog"

	"github.com/go-telegram/bot/models"
)

// updateInfo is what the middlewares log about an update: who sent it and
// whether it carries something the captioner could work on.
type updateInfo struct {
	kind       string
	chatID     int64
	userID     int64
	upload     string
	textLength int
}

func describeUpdate(update *models.Update) updateInfo {
	msg := update.Message
	kind := "message"
	if msg == nil {
		msg = update.EditedMessage
		kind = "edited_message"
	}
	if msg == nil {
		return updateInfo{kind: "unknown"}
	}

	info := updateInfo{
		kind:       kind,
		chatID:     msg.Chat.ID,
		textLength: len([]rune(msg.Text)) + len([]rune(msg.Caption)),
	}
	if msg.From != nil {
		info.userID = msg.From.ID
	}

	switch {
	case msg.Document != nil:
		info.upload = "document"
		if msg.Document.MimeType != "" {
			info.upload += ":" + msg.Document.MimeType
		}
	case len(msg.Photo) > 0:
		info.upload = "photo"
	}
	return info
}

func (i updateInfo) attrs() []any {
	attrs := []any{
		"type", i.kind,
		"chat_id", i.chatID,
		"user_id", i.userID,
	}
	if i.upload != "" {
		attrs = append(attrs, "upload", i.upload)
	}
	return attrs
}

func (i updateInfo) logValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", i.kind),
		slog.Int64("chat_id", i.chatID),
		slog.Int64("user_id", i.userID),
		slog.String("upload", i.upload),
	)
}
