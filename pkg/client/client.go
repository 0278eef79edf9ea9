// Package client is a small HTTP client for a running SomniaTrack API.
package client

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "http://localhost:8000"

// Prediction mirrors the /predict response.
type Prediction struct {
	State string  `json:"state"`
	Score float64 `json:"score"`
	Notes string  `json:"notes"`
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	httpClient *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient}
}

// Health reports whether the API answers its liveness probe.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/health")
	if err := check(resp, err); err != nil {
		return false, err
	}
	return out.OK, nil
}

// Predict uploads an audio clip for classification.
func (c *Client) Predict(ctx context.Context, filename string, audio io.Reader) (*Prediction, error) {
	var out Prediction
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("audio", filename, audio).
		SetResult(&out).
		SetError(&APIError{}).
		Post("/predict")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Demo fetches the canned demo result.
func (c *Client) Demo(ctx context.Context) (*Prediction, error) {
	var out Prediction
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/predict/demo")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{Message: resp.Status()}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
