package service

import (
	"fmt"
	"io"

	"github.com/set-night/captionbot/internal/domain"
)

// ReadLimited reads r to the end, failing with domain.ErrAttachmentTooLarge
// instead of truncating when r holds more than limit bytes.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrAttachmentTooLarge, limit)
	}
	return data, nil
}
