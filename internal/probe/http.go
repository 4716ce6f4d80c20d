package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/matchxai/internal/domain/types"
)

// Client talks to the matchxai HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new HTTP client with timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ExplanationResponse is the body of POST /explain/{strategy}.
type ExplanationResponse struct {
	Success bool `json:"success"`
	types.Explanation
}

// CombinedResponse is the body of POST /explain/combined.
type CombinedResponse struct {
	Success bool `json:"success"`
	types.CombinedExplanation
}

type predictResponse struct {
	Success    bool    `json:"success"`
	Prediction float64 `json:"prediction"`
}

type importanceResponse struct {
	Success  bool               `json:"success"`
	Features []types.Importance `json:"features"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var out types.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Predict calls POST /predict.
func (c *Client) Predict(ctx context.Context, instance map[string]float64) (float64, error) {
	var out predictResponse
	err := c.do(ctx, http.MethodPost, "/predict", instance, &out)
	return out.Prediction, err
}

// Explain calls POST /explain/{strategy}.
func (c *Client) Explain(ctx context.Context, strategy string, instance map[string]float64) (ExplanationResponse, error) {
	var out ExplanationResponse
	err := c.do(ctx, http.MethodPost, "/explain/"+strategy, instance, &out)
	return out, err
}

// Combined calls POST /explain/combined.
func (c *Client) Combined(ctx context.Context, instance map[string]float64) (CombinedResponse, error) {
	var out CombinedResponse
	err := c.do(ctx, http.MethodPost, "/explain/combined", instance, &out)
	return out, err
}

// Importance calls POST /explain/importance.
func (c *Client) Importance(ctx context.Context, instance map[string]float64) ([]types.Importance, error) {
	var out importanceResponse
	err := c.do(ctx, http.MethodPost, "/explain/importance", instance, &out)
	return out.Features, err
}

// Retrain calls POST /retrain.
func (c *Client) Retrain(ctx context.Context) (types.RetrainResult, error) {
	var out types.RetrainResult
	err := c.do(ctx, http.MethodPost, "/retrain", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
