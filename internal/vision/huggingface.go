package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/service"
)

// HuggingFaceCaptioner calls an image-to-text model (BLIP by default) on the
// Hugging Face inference API.
type HuggingFaceCaptioner struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewHuggingFaceCaptioner(apiKey, baseURL, model string) *HuggingFaceCaptioner {
	return &HuggingFaceCaptioner{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens int `json:"max_new_tokens"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (c *HuggingFaceCaptioner) Caption(ctx context.Context, img image.Image, maxTokens int) (string, error) {
	raw, err := service.EncodeJPEG(img, config.JPEGQuality)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(hfRequest{
		Inputs:     base64.StdEncoding.EncodeToString(raw),
		Parameters: hfParameters{MaxNewTokens: maxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("caption request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("huggingface api error (status %d): %s", resp.StatusCode, string(body))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(body, &generations); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("empty generations from huggingface api")
	}

	return generations[0].GeneratedText, nil
}
