// Package imagegen requests generated marketing imagery for catalog products
// from a SeeDream-style image generation API. A failed generation never
// fails the product; the caller just ends up without the extra image.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// maxAttempts bounds retries on timeout or non-200 responses.
	maxAttempts = 2

	downloadTimeout = 10 * time.Second
)

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	downloader *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 180 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		downloader: &http.Client{Timeout: downloadTimeout},
		retryDelay: 5 * time.Second,
		logger:     logger.With("component", "imagegen"),
	}
}

type generationRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	Image         []string `json:"image"`
	Strength      float64  `json:"strength"`
	GuidanceScale float64  `json:"guidance_scale"`
	Height        string   `json:"height"`
	Width         string   `json:"width"`
	NumImages     int      `json:"num_images"`
}

// generationResponse covers both response shapes the API emits: a top-level
// images array and an OpenAI-style data array.
type generationResponse struct {
	Images []generatedImage `json:"images"`
	Data   []generatedImage `json:"data"`
}

type generatedImage struct {
	B64JSON string `json:"b64_json"`
	URL     string `json:"url"`
}

func (g *generatedImage) UnmarshalJSON(data []byte) error {
	// Some responses carry bare base64 strings instead of objects.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		g.B64JSON = s
		return nil
	}

	type alias generatedImage
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*g = generatedImage(a)
	return nil
}

// GenerateProductImage generates one marketing image for the product and
// returns it as a data URL. Reference image URLs are downloaded and inlined
// as base64; data URLs pass through untouched.
func (c *Client) GenerateProductImage(ctx context.Context, title string, referenceURLs []string, variation Variation) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("image generation API key not configured")
	}

	encoded := c.encodeReferences(ctx, referenceURLs)
	if len(encoded) == 0 {
		return "", errors.New("no reference images could be encoded")
	}

	payload, err := json.Marshal(generationRequest{
		Model:         c.model,
		Prompt:        buildPrompt(title, variation, len(encoded)),
		Image:         encoded,
		Strength:      0.7,
		GuidanceScale: 7.5,
		Height:        "2048",
		Width:         "2048",
		NumImages:     1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	body, err := c.post(ctx, payload, title, variation)
	if err != nil {
		return "", err
	}

	var parsed generationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	images := parsed.Images
	if len(images) == 0 {
		images = parsed.Data
	}

	for _, img := range images {
		if img.B64JSON != "" {
			return "data:image/png;base64," + img.B64JSON, nil
		}
		if img.URL != "" {
			return c.fetchAsDataURL(ctx, img.URL)
		}
	}

	return "", errors.New("no image found in generation response")
}

// post sends the generation request with up to maxAttempts tries, retrying
// after a fixed delay on timeout or non-200 status.
func (c *Client) post(ctx context.Context, payload []byte, title string, variation Variation) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Info("retrying image generation",
				"title", title,
				"attempt", attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if isTimeout(err) {
				c.logger.Warn("image generation timed out",
					"title", title,
					"variation", variation,
					"attempt", attempt)
				continue
			}
			c.logger.Error("image generation request failed",
				"title", title,
				"error", err,
				"attempt", attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, body)
			c.logger.Error("image generation API error",
				"status", resp.StatusCode,
				"title", title,
				"attempt", attempt)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("image generation failed after %d attempts: %w", maxAttempts, lastErr)
}

// encodeReferences downloads each reference URL and re-encodes it as a JPEG
// data URL. References that fail to download are skipped, not fatal.
func (c *Client) encodeReferences(ctx context.Context, urls []string) []string {
	var encoded []string

	for _, u := range urls {
		if strings.HasPrefix(u, "data:image") {
			encoded = append(encoded, u)
			continue
		}

		dataURL, err := c.downloadAsDataURL(ctx, u, "image/jpeg")
		if err != nil {
			c.logger.Warn("failed to encode reference image", "url", u, "error", err)
			continue
		}
		encoded = append(encoded, dataURL)
	}

	return encoded
}

func (c *Client) fetchAsDataURL(ctx context.Context, url string) (string, error) {
	return c.downloadAsDataURL(ctx, url, "image/png")
}

func (c *Client) downloadAsDataURL(ctx context.Context, url, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.downloader.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
