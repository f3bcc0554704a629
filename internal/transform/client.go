// Package transform submits recordings to the remote transformation service.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rbright/recast/internal/audio"
)

const (
	fieldName    = "file"
	fileName     = "audio.wav"
	errorBodyCap = 256
)

var (
	// ErrUnreachable marks requests that never produced an HTTP response.
	ErrUnreachable = errors.New("transformation service unreachable")
	// ErrStatus marks non-2xx responses.
	ErrStatus = errors.New("transformation service returned an error status")
	// ErrNoAudio marks a response without an audio payload.
	ErrNoAudio = errors.New("no audio found in response")
	// ErrService marks an application error reported in the response body.
	ErrService = errors.New("transformation service reported an error")
)

// Config configures one Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Client posts WAV recordings as multipart uploads and decodes the returned audio.
type Client struct {
	endpoint string
	http     *resty.Client
	logger   *slog.Logger
}

// Error wraps a classified transformation failure.
type Error struct {
	Kind   error
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%v (status %d)", e.Kind, e.Status)
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unreachable reports whether the request failed before any response arrived.
func (e *Error) Unreachable() bool {
	return errors.Is(e.Kind, ErrUnreachable)
}

// IsTransport reports whether err is a connectivity failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

type response struct {
	Audio *string `json:"audio"`
	Error string  `json:"error"`
}

// New constructs a Client for cfg.Endpoint.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("transformation endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recast")

	return &Client{endpoint: endpoint, http: httpClient, logger: logger}, nil
}

// Endpoint returns the upload URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Transform uploads clip and returns the decoded result clip.
func (c *Client) Transform(ctx context.Context, clip audio.Clip) (audio.Clip, error) {
	if clip.Empty() {
		return audio.Clip{}, errors.New("recording is empty")
	}
	mime := clip.MIME
	if mime == "" {
		mime = audio.MIMEWAV
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField(fieldName, fileName, mime, bytes.NewReader(clip.Data)).
		Post(c.endpoint)
	if err != nil {
		return audio.Clip{}, &Error{Kind: ErrUnreachable, Err: err}
	}

	c.logger.Debug("transform response",
		"endpoint", c.endpoint,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"latency_ms", time.Since(started).Milliseconds(),
	)

	if !resp.IsSuccess() {
		return audio.Clip{}, &Error{Kind: ErrStatus, Status: resp.StatusCode(), Err: bodyDetail(resp.Body())}
	}

	return decodeResponse(resp.Body())
}

func decodeResponse(body []byte) (audio.Clip, error) {
	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return audio.Clip{}, &Error{Kind: ErrService, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Error != "" {
		return audio.Clip{}, &Error{Kind: ErrService, Err: errors.New(payload.Error)}
	}
	if payload.Audio == nil || strings.TrimSpace(*payload.Audio) == "" {
		return audio.Clip{}, &Error{Kind: ErrNoAudio}
	}

	clip, err := DecodeDataURI(*payload.Audio)
	if err != nil {
		return audio.Clip{}, &Error{Kind: ErrService, Err: err}
	}
	if clip.Empty() {
		return audio.Clip{}, &Error{Kind: ErrNoAudio}
	}
	return clip, nil
}

func bodyDetail(body []byte) error {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	var payload response
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		text = payload.Error
	}
	if len(text) > errorBodyCap {
		text = text[:errorBodyCap] + "..."
	}
	return errors.New(text)
}
