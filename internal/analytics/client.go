package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 60 * time.Second

// Client talks to the analytics engine over its JSON HTTP contract.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine request %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read engine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine %s returned %d: %s", path, resp.StatusCode, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode engine response %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Summary fetches shape, grain and latest diagonal for one triangle.
func (c *Client) Summary(ctx context.Context, triangle string) (*TriangleSummary, error) {
	var out TriangleSummary
	in := struct {
		Triangle string `json:"triangle"`
	}{triangle}
	if err := c.post(ctx, "/v1/summary", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate runs the engine's structural checks on a triangle.
func (c *Client) Validate(ctx context.Context, triangle string) (*TriangleValidation, error) {
	var out TriangleValidation
	in := struct {
		Triangle string `json:"triangle"`
	}{triangle}
	if err := c.post(ctx, "/v1/validate", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Development computes link ratios under the requested averaging.
func (c *Client) Development(ctx context.Context, p DevelopmentParams) (*DevelopmentResult, error) {
	var out DevelopmentResult
	if err := c.post(ctx, "/v1/development", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tail fits a tail factor beyond the observed periods.
func (c *Client) Tail(ctx context.Context, p TailParams) (*TailResult, error) {
	var out TailResult
	if err := c.post(ctx, "/v1/tail", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IBNR runs the requested reserving method.
func (c *Client) IBNR(ctx context.Context, p IBNRParams) (*IBNRResult, error) {
	var out IBNRResult
	if err := c.post(ctx, "/v1/ibnr", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bootstrap simulates the IBNR distribution for one triangle.
func (c *Client) Bootstrap(ctx context.Context, p BootstrapParams) (*BootstrapResult, error) {
	var out BootstrapResult
	if err := c.post(ctx, "/v1/bootstrap", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plot renders one diagnostic and returns the artifact path.
func (c *Client) Plot(ctx context.Context, p PlotParams) (*PlotResult, error) {
	var out PlotResult
	if err := c.post(ctx, "/v1/plot", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
