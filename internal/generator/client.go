package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"coverly/internal/utils"
)

// ErrNoImageData is returned when the webhook answers 2xx but the body
// carries no usable image payload.
var ErrNoImageData = errors.New("generation response contained no image data")

// StatusError reports a non-2xx response from the generation webhook.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation webhook returned status %d", e.StatusCode)
}

// Result is a decoded image returned by the webhook.
type Result struct {
	Data      []byte
	Extension string
}

// Client calls the external image-generation webhook.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a webhook client. The timeout bounds the full request,
// generation runs take up to two minutes.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type webhookResponse struct {
	Image string `json:"image"`
}

// Generate posts the request to the webhook and decodes the returned image.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call generation webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded webhookResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if decoded.Image == "" {
		return nil, ErrNoImageData
	}

	data, ext, err := utils.DecodeImagePayload(decoded.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return &Result{Data: data, Extension: ext}, nil
}
