package domain

import "context"

// Message is an inbound chat message normalized across platforms.
type Message struct {
	ID          string
	AuthorID    string
	AuthorName  string
	ChannelID   string
	IsSelf      bool
	Text        string
	Attachments []Attachment
}

// Attachment is a file uploaded alongside a message. Read fetches the
// payload; it is called at most once per event.
type Attachment struct {
	Filename string
	Size     int
	Read     func(ctx context.Context) ([]byte, error)
}

// MessageRef identifies a message the bot sent, so it can be edited later.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// HasAttachment reports whether the message carries at least one file.
func (m Message) HasAttachment() bool {
	return len(m.Attachments) > 0
}
