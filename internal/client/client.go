// Package client talks to the analysis endpoint and drives the upload/render
// flow shared by the terminal client and tests.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"order-insights/internal/models"
)

const (
	formField            = "file"
	defaultTimeout       = 30 * time.Second
	maxResponseBodyBytes = 32 << 20
)

type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds a whole request, upload included. Hitting it surfaces
// as a *TransportError.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client for the POST /analyze endpoint at endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  defaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.timeout}
	return c
}

// Analyze uploads content as the single multipart field "file" and decodes
// the analysis result.
func (c *Client) Analyze(ctx context.Context, filename string, content io.Reader) (*models.AnalysisResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile(formField, filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.Close()
		c.logger.Debug("analysis request failed", "endpoint", c.endpoint, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("analysis request completed",
		"endpoint", c.endpoint,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serviceError(resp, body)
	}

	return DecodeResult(body)
}

func serviceError(resp *http.Response, body []byte) *ServiceError {
	svcErr := &ServiceError{
		StatusCode: resp.StatusCode,
		Message:    MessageUnexpected,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	var payload struct {
		Error     any    `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return svcErr
	}
	if msg, ok := payload.Error.(string); ok && msg != "" {
		svcErr.Message = msg
	}
	if payload.RequestID != "" {
		svcErr.RequestID = payload.RequestID
	}
	return svcErr
}
