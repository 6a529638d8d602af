package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kailas-cloud/pemrank/internal/version"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

// remoteClient talks to a pemrank server.
type remoteClient struct {
	base   string
	apiKey string
	http   *http.Client
}

func newRemoteClient(base, apiKey string, timeout time.Duration) *remoteClient {
	if apiKey == "" {
		apiKey = os.Getenv("PEMRANK_API_KEY")
	}
	return &remoteClient{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *remoteClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e apiv1.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code == "" {
			return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d %s: %s", method, path, resp.StatusCode, e.Code, e.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Rank posts a raw request body to /rank.
func (c *remoteClient) Rank(ctx context.Context, body []byte) (*apiv1.RankResponse, error) {
	var out apiv1.RankResponse
	if err := c.do(ctx, http.MethodPost, "/rank", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health queries /health.
func (c *remoteClient) Health(ctx context.Context) (*apiv1.HealthResponse, error) {
	var out apiv1.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
