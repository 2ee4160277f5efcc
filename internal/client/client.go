package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"camstreamer/internal/dto"
)

const (
	statusPath = "/api/status"
	streamPath = "/receive_camera_frame"

	// DefaultTimeout bounds both the status poll and the frame upload.
	DefaultTimeout = time.Second
)

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.URL, e.Code)
}

// IsStatusError reports whether err carries a non-success HTTP response,
// as opposed to a transport failure.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Client talks to the frame receiver.
type Client struct {
	http      *http.Client
	statusURL string
	streamURL string
	timeout   time.Duration
	userAgent string
}

// Option customizes a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := strings.TrimRight(baseURL, "/")

	c := &Client{
		http:      &http.Client{},
		statusURL: base + statusPath,
		streamURL: base + streamPath,
		timeout:   timeout,
		userAgent: "camstreamer",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusURL returns the activation status endpoint.
func (c *Client) StatusURL() string { return c.statusURL }

// StreamURL returns the frame upload endpoint.
func (c *Client) StreamURL() string { return c.streamURL }

// FetchStatus asks the server which camera is currently active.
func (c *Client) FetchStatus(ctx context.Context) (*dto.StatusResponse, error) {
	var status dto.StatusResponse
	if err := c.do(ctx, http.MethodGet, c.statusURL, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UploadFrame posts one encoded frame.
func (c *Client) UploadFrame(ctx context.Context, payload *dto.FramePayload) (*dto.FrameAck, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame payload: %w", err)
	}

	var ack dto.FrameAck
	if err := c.do(ctx, http.MethodPost, c.streamURL, body, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, URL: url, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, url, err)
	}
	return nil
}
