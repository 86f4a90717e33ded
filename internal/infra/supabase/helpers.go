package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lifecompass/finance-bfa-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for PostgREST
// ============================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceRoleKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doGet returns the response body, or nil when the table has no matching rows.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: GET request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if err := c.checkStatus(http.MethodGet, path, resp.StatusCode, body); err != nil {
		return nil, err
	}

	c.logger.Debug("supabase: GET OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return body, nil
}

// doUpsert POSTs data with merge-duplicates resolution.
func (c *Client) doUpsert(ctx context.Context, path string, data any) error {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return resilience.Permanent(err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(jsonBody))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: upsert request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if err := c.checkStatus(http.MethodPost, path, resp.StatusCode, body); err != nil {
		return err
	}

	c.logger.Debug("supabase: upsert OK", zap.String("path", path), zap.Int("status", resp.StatusCode))
	return nil
}

// checkStatus logs non-2xx responses. 4xx is permanent; 5xx may be retried.
func (c *Client) checkStatus(method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	c.logger.Warn("supabase: non-2xx response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("body", string(body)),
	)
	err := fmt.Errorf("supabase %s returned %d: %s", method, status, string(body))
	if status < 500 {
		return resilience.Permanent(err)
	}
	return err
}
