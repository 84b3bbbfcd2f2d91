// Package artifact turns one pet photo into one coloring-book page via
// the Gemini generateContent API.
package artifact

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// PromptLineArt is the fixed transformation directive for every page.
const PromptLineArt = "Convert this pet photo into a clean, realistic line art illustration suitable for a coloring book.\n\n" +
	"CORE GOAL: Preserve the pet's real appearance, proportions, and expression. The pet must remain clearly recognizable.\n\n" +
	"STYLE: Black-and-white outline drawing. Smooth, confident, continuous black lines. Medium-to-thick clean outlines. " +
	"No sketchy lines, no cross-hatching, no shading, no gradients, no gray tones.\n\n" +
	"DETAILS: Simplify fur into clean contour shapes. Keep facial features accurate but simplified. " +
	"Pure white background. Black lines only. Center the pet. Remove background elements completely.\n\n" +
	"OUTPUT: Clean, printable coloring book page."

// ErrNoImage means the model answered without an image part; retrying the
// same input is pointless.
var ErrNoImage = errors.New("gemini: no image in response")

// StatusError is an API-level rejection. Rate limiting is the only kind
// the client retries.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: status %d %s: %s", e.Code, e.Status, e.Message)
}

func (e *StatusError) RateLimited() bool {
	if e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "quota")
}

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	maxAttempts    = 2
)

type Client struct {
	Client *http.Client
	APIKey string
	Model  string
	// BaseURL overrides the API host, for tests.
	BaseURL string
	// RetryDelay is the fixed pause before the rate-limit retry.
	RetryDelay time.Duration
}

func NewClient(httpClient *http.Client, apiKey, model string) (*Client, error) {
	if apiKey == "" || model == "" {
		return nil, fmt.Errorf("gemini: api key and model must be configured")
	}
	model = strings.TrimPrefix(model, "models/")
	return &Client{
		Client:     httpClient,
		APIKey:     apiKey,
		Model:      model,
		RetryDelay: 5 * time.Second,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces a PNG page from the source photo. Rate-limited calls
// are retried once after RetryDelay; any other failure surfaces
// immediately.
func (c *Client) Generate(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := c.generateOnce(ctx, image, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var se *StatusError
		if !errors.As(err, &se) || !se.RateLimited() || attempt == maxAttempts-1 {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
	return nil, lastErr
}

func (c *Client) generateOnce(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: http.DetectContentType(image),
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Code: resp.StatusCode}
		if gr.Error != nil {
			se.Status = gr.Error.Status
			se.Message = gr.Error.Message
		}
		return nil, se
	}

	for _, cand := range gr.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode image: %w", err)
			}
			return data, nil
		}
	}
	return nil, ErrNoImage
}
