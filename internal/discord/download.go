package discord

import (
	"context"
	"fmt"
	"net/http"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/service"
)

func (a *Adapter) download(ctx context.Context, url string) ([]byte, error) {
	return downloadAttachment(ctx, a.client, url)
}

// downloadAttachment fetches an attachment from the Discord CDN.
func downloadAttachment(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download attachment: status %d", resp.StatusCode)
	}

	data, err := service.ReadLimited(resp.Body, config.MaxAttachmentBytes)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}
