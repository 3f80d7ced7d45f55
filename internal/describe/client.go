package describe

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

	"github.com/kagelump/vlog/internal/config"
	"github.com/kagelump/vlog/internal/services"
)

const defaultHTTPTimeout = 600 * time.Second

// Sampling rates drop as clips get longer so the daemon sees a bounded
// number of frames regardless of clip length.
const (
	mediumLengthSeconds = 120
	longLengthSeconds   = 300
	mediumFPSScale      = 0.5
	longFPSScale        = 0.25
)

// SamplingFPS returns the frame sampling rate for a clip of the given length.
// Both scale factors apply cumulatively to clips past the long threshold.
func SamplingFPS(base, lengthSeconds float64) float64 {
	if base <= 0 {
		base = 1.0
	}
	fps := base
	if lengthSeconds > mediumLengthSeconds {
		fps *= mediumFPSScale
	}
	if lengthSeconds > longLengthSeconds {
		fps *= longFPSScale
	}
	return fps
}

// Request is the payload sent to the description daemon.
type Request struct {
	Filename    string  `json:"filename"`
	FPS         float64 `json:"fps"`
	MaxPixels   int     `json:"max_pixels"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Segment is a sub-clip boundary reported by the daemon.
type Segment struct {
	InTimestamp  string `json:"in_timestamp"`
	OutTimestamp string `json:"out_timestamp"`
}

// Response carries the daemon's description of a single video.
type Response struct {
	Filename            string    `json:"filename"`
	DescriptionLong     string    `json:"video_description_long"`
	DescriptionShort    string    `json:"video_description_short"`
	PrimaryShotType     string    `json:"primary_shot_type"`
	Tags                []string  `json:"tags"`
	ClassificationTime  float64   `json:"classification_time_seconds"`
	ClassificationModel string    `json:"classification_model"`
	VideoLengthSeconds  float64   `json:"video_length_seconds"`
	VideoTimestamp      string    `json:"video_timestamp"`
	InTimestamp         string    `json:"in_timestamp"`
	OutTimestamp        string    `json:"out_timestamp"`
	Rating              float64   `json:"rating"`
	Segments            []Segment `json:"segments"`
	CameraMovement      string    `json:"camera_movement"`
}

// Health is the daemon's health endpoint payload.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name"`
}

// DaemonStatus reports what the daemon is currently processing.
type DaemonStatus struct {
	Status         string  `json:"status"`
	ModelLoaded    bool    `json:"model_loaded"`
	ModelName      string  `json:"model_name"`
	Busy           bool    `json:"is_busy"`
	TotalProcessed int     `json:"total_processed"`
	CurrentFile    string  `json:"current_file"`
	ProcessingSecs float64 `json:"processing_time_seconds"`
}

// Client talks to the MLX description daemon over HTTP.
type Client struct {
	cfg        config.Describe
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a description daemon client from configuration.
func NewClient(cfg config.Describe, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// DescribeFile describes the video at path, choosing the sampling rate from
// the clip length. Zero or negative lengthSeconds leaves the base rate as is.
func (c *Client) DescribeFile(ctx context.Context, path string, lengthSeconds float64) (Response, error) {
	req := Request{
		Filename:    path,
		FPS:         SamplingFPS(c.cfg.SamplingFPS, lengthSeconds),
		MaxPixels:   c.cfg.MaxPixels,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	return c.Describe(ctx, req)
}

// Describe submits a description request to the daemon. A 503 response means
// the daemon is busy with another clip and maps to services.ErrUnavailable.
func (c *Client) Describe(ctx context.Context, req Request) (Response, error) {
	var result Response
	if strings.TrimSpace(req.Filename) == "" {
		return result, errors.New("describe: filename required")
	}
	if req.FPS <= 0 {
		req.FPS = SamplingFPS(c.cfg.SamplingFPS, 0)
	}
	if req.MaxPixels <= 0 {
		req.MaxPixels = c.cfg.MaxPixels
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.cfg.MaxTokens
	}

	body, status, err := c.post(ctx, "/describe", req)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "describe", "request", "description daemon unreachable", err)
	}
	switch {
	case status == http.StatusServiceUnavailable:
		return result, services.Wrap(services.ErrUnavailable, "describe", "request", "description daemon busy", errorFromBody(body))
	case status >= http.StatusMultipleChoices:
		return result, services.Wrap(services.ErrTransient, "describe", "request",
			fmt.Sprintf("description daemon returned %d", status), errorFromBody(body))
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return result, services.Wrap(services.ErrTransient, "describe", "request", "decode daemon response", err)
	}
	return result, nil
}

// Health checks the daemon's health endpoint. It responds even when the
// daemon is busy describing.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	if err := c.get(ctx, "/health", &health); err != nil {
		return health, err
	}
	return health, nil
}

// Status reports the daemon's processing state.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	if err := c.get(ctx, "/status", &status); err != nil {
		return status, err
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "describe", strings.TrimPrefix(path, "/"), "description daemon unreachable", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrTransient, "describe", strings.TrimPrefix(path, "/"),
			fmt.Sprintf("description daemon returned %d", resp.StatusCode), errorFromBody(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromBody surfaces the daemon's error detail when the payload carries one.
func errorFromBody(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && strings.TrimSpace(detail.Detail) != "" {
		return errors.New(detail.Detail)
	}
	return errors.New(trimmed)
}
