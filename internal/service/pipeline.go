package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
)

// CaptionPipeline turns uploaded bytes into a caption and tags.
type CaptionPipeline struct {
	captioner Captioner
	timeout   time.Duration
	maxSide   int
	maxTokens int
}

func NewCaptionPipeline(captioner Captioner, timeout time.Duration) *CaptionPipeline {
	return &CaptionPipeline{
		captioner: captioner,
		timeout:   timeout,
		maxSide:   config.MaxImageSide,
		maxTokens: config.MaxCaptionTokens,
	}
}

// Process decodes, normalizes and captions raw image bytes. It returns
// either a complete result or an error wrapping domain.ErrDecode or
// domain.ErrModel.
func (p *CaptionPipeline) Process(ctx context.Context, raw []byte) (*domain.CaptionResult, error) {
	img, err := DecodeImage(raw)
	if err != nil {
		return nil, err
	}
	original := img.Bounds()
	img = Normalize(img, p.maxSide)

	slog.Debug("image normalized",
		"width", original.Dx(),
		"height", original.Dy(),
		"scaled_width", img.Bounds().Dx(),
		"scaled_height", img.Bounds().Dy(),
	)

	text, err := p.caption(ctx, img)
	if err != nil {
		return nil, err
	}

	caption := strings.Join(strings.Fields(text), " ")
	if caption == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrModel, domain.ErrEmptyCaption)
	}

	return &domain.CaptionResult{
		Caption: caption,
		Tags:    ExtractTags(caption),
	}, nil
}

// caption calls the collaborator with a bounded wait. A collaborator that
// ignores ctx is abandoned once the deadline passes.
func (p *CaptionPipeline) caption(ctx context.Context, img image.Image) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		text, err := p.captioner.Caption(callCtx, img, p.maxTokens)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: timed out after %s: %w", domain.ErrModel, p.timeout, r.err)
			}
			return "", fmt.Errorf("%w: %w", domain.ErrModel, r.err)
		}
		slog.Debug("caption generated", "duration", time.Since(start))
		return r.text, nil
	case <-callCtx.Done():
		return "", fmt.Errorf("%w: no caption after %s: %w", domain.ErrModel, time.Since(start).Round(time.Millisecond), callCtx.Err())
	}
}
