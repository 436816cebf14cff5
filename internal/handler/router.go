package handler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/set-night/captionbot/internal/domain"
	"github.com/set-night/captionbot/internal/service"
)

// Dispatch handles msg on its own goroutine so a slow caption never holds
// up other users. Messages of the same user still run one at a time.
func (h *Handler) Dispatch(ctx context.Context, out Messenger, msg domain.Message) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered in message handler",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		h.HandleMessage(ctx, out, msg)
	}()
}

// Wait blocks until every dispatched message has been handled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// HandleMessage evaluates one inbound message synchronously.
func (h *Handler) HandleMessage(ctx context.Context, out Messenger, msg domain.Message) {
	if msg.IsSelf {
		return
	}
	if h.dedup.Seen(msg.ID) {
		slog.Debug("duplicate message ignored", "message_id", msg.ID, "user_id", msg.AuthorID)
		return
	}

	log := slog.With(
		"request_id", uuid.NewString(),
		"user_id", msg.AuthorID,
		"channel_id", msg.ChannelID,
	)
	log.Debug("message received",
		"author", msg.AuthorName,
		"content", truncate(msg.Text, 50),
		"attachment", firstFilename(msg),
	)

	release := h.tracker.Acquire(msg.AuthorID)
	defer release()

	isCommand := h.handleCommand(ctx, log, out, msg)

	if msg.HasAttachment() {
		h.handleAttachment(ctx, log, out, msg)
		return
	}

	if !isCommand && h.tracker.IsWaiting(msg.AuthorID) {
		h.send(ctx, log, out, msg.ChannelID, ReplyReminder)
	}
}

// handleCommand replies to a recognized command and reports whether there was one.
func (h *Handler) handleCommand(ctx context.Context, log *slog.Logger, out Messenger, msg domain.Message) bool {
	name, ok := matchCommand(msg.Text, h.prefix)
	if !ok {
		return false
	}

	switch name {
	case CommandHelp:
		h.send(ctx, log, out, msg.ChannelID, h.help)
	case CommandImage:
		h.tracker.BeginWaiting(msg.AuthorID)
		log.Debug("waiting for image")
		h.send(ctx, log, out, msg.ChannelID, ReplyAskImage)
	}
	return true
}

// handleAttachment runs the first attachment through the gate and the
// pipeline. The user's session is cleared on every exit path.
func (h *Handler) handleAttachment(ctx context.Context, log *slog.Logger, out Messenger, msg domain.Message) {
	defer h.tracker.Clear(msg.AuthorID)

	if extra := len(msg.Attachments) - 1; extra > 0 {
		log.Debug("extra attachments ignored", "count", extra)
	}
	att := msg.Attachments[0]
	log = log.With("filename", att.Filename)

	if !service.IsAcceptableFilename(att.Filename) {
		log.Info("attachment rejected")
		h.send(ctx, log, out, msg.ChannelID, ReplyRejected)
		return
	}

	log.Info("processing image")
	placeholder, err := out.SendText(ctx, msg.ChannelID, ReplyProcessing)
	if err != nil {
		log.Error("failed to send placeholder", "error", err)
		return
	}

	stopTyping := h.startTyping(ctx, out, msg.ChannelID)
	result, err := h.process(ctx, att)
	stopTyping()

	text := ReplyFailure
	if err != nil {
		log.Error("caption pipeline failed", "error", err)
		if h.reporter != nil {
			h.reporter.LogError(err, fmt.Sprintf("caption %q for user %s", att.Filename, msg.AuthorID))
		}
	} else {
		text = FormatResult(result)
		log.Info("image captioned", "caption", result.Caption, "tags", result.Tags)
	}

	if err := out.EditText(ctx, placeholder, text); err != nil {
		log.Error("failed to edit placeholder", "error", err)
	}
}

func (h *Handler) process(ctx context.Context, att domain.Attachment) (*domain.CaptionResult, error) {
	if att.Read == nil {
		return nil, fmt.Errorf("%w: attachment has no payload", domain.ErrDecode)
	}
	if int64(att.Size) > h.maxBytes {
		return nil, fmt.Errorf("%w: %w: declared %d bytes", domain.ErrDecode, domain.ErrAttachmentTooLarge, att.Size)
	}
	raw, err := att.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read attachment: %w", domain.ErrDecode, err)
	}
	slog.Debug("attachment downloaded", "filename", att.Filename, "bytes", len(raw))
	return h.pipeline.Process(ctx, raw)
}

func (h *Handler) startTyping(ctx context.Context, out Messenger, channelID string) func() {
	if typer, ok := out.(Typer); ok {
		return typer.StartTyping(ctx, channelID)
	}
	return func() {}
}

func (h *Handler) send(ctx context.Context, log *slog.Logger, out Messenger, channelID, text string) {
	if _, err := out.SendText(ctx, channelID, text); err != nil {
		log.Error("failed to send reply", "error", err)
	}
}

func firstFilename(msg domain.Message) string {
	first, ok := lo.First(msg.Attachments)
	if !ok {
		return ""
	}
	return first.Filename
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
