package handler

import (
	"sync"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/service"
)

// Handler routes every inbound chat message: commands, the awaiting-image
// session and the caption pipeline.
type Handler struct {
	tracker  *service.SessionTracker
	pipeline Pipeline
	dedup    *Dedup
	reporter ErrorReporter
	prefix   string
	help     string
	maxBytes int64

	inflight sync.WaitGroup
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Tracker       *service.SessionTracker
	Pipeline      Pipeline
	Dedup         *Dedup
	Reporter      ErrorReporter
	CommandPrefix string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	prefix := deps.CommandPrefix
	if prefix == "" {
		prefix = "!"
	}
	return &Handler{
		tracker:  deps.Tracker,
		pipeline: deps.Pipeline,
		dedup:    deps.Dedup,
		reporter: deps.Reporter,
		prefix:   prefix,
		help:     helpText(prefix),
		maxBytes: config.MaxAttachmentBytes,
	}
}
