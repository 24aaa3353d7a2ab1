// Package client reads network state from a running luxbind over HTTP and
// drives its admin endpoints.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nicheai/luxbin/internal/ledger"
	"github.com/nicheai/luxbin/internal/network"
)

// Readiness backoff bounds.
const (
	InitialBackoff = 2 * time.Second
	MaxBackoff     = 30 * time.Second
)

// BlockPage mirrors GET /api/v1/blocks.
type BlockPage struct {
	Blocks []ledger.Block `json:"blocks"`
	Total  int            `json:"total"`
}

// Snapshot is the response from POST /api/v1/snapshot.
type Snapshot struct {
	Path      string `json:"path"`
	Blocks    int    `json:"blocks"`
	Message   string `json:"message"`
	Persisted bool   `json:"persisted"`
	Tick      uint64 `json:"tick"`
}

// Client talks to the luxbind HTTP API.
type Client struct {
	BaseURL    string
	AdminKey   string // required for Mine and Snapshot
	HTTPClient *http.Client

	// Backoff bounds for WaitReady. Zero values use the defaults.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// New creates a Client targeting the given API base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches GET /api/v1/status.
func (c *Client) Status(ctx context.Context) (*network.Status, error) {
	var st network.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", false, &st); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return &st, nil
}

// Blocks fetches the newest blocks, at most limit.
func (c *Client) Blocks(ctx context.Context, limit int) (*BlockPage, error) {
	path := "/api/v1/blocks"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var page BlockPage
	if err := c.do(ctx, http.MethodGet, path, false, &page); err != nil {
		return nil, fmt.Errorf("fetch blocks: %w", err)
	}
	return &page, nil
}

// Mine asks the daemon to mine a block now.
func (c *Client) Mine(ctx context.Context) (*ledger.Block, error) {
	var b ledger.Block
	if err := c.do(ctx, http.MethodPost, "/api/v1/mine", true, &b); err != nil {
		return nil, fmt.Errorf("mine: %w", err)
	}
	return &b, nil
}

// Snapshot asks the daemon to write its status file and persist the chain.
func (c *Client) Snapshot(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	if err := c.do(ctx, http.MethodPost, "/api/v1/snapshot", true, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &s, nil
}

// WaitReady polls /health with exponential backoff until it answers 200
// or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	backoff := c.InitialBackoff
	if backoff <= 0 {
		backoff = InitialBackoff
	}
	maxBackoff := c.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = MaxBackoff
	}

	for {
		err := c.do(ctx, http.MethodGet, "/health", false, nil)
		if err == nil {
			slog.Info("luxbind API is ready", "url", c.BaseURL)
			return nil
		}
		slog.Debug("luxbind API not ready", "retry_in", backoff, "error", err)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("wait for %s: %w", c.BaseURL, ctx.Err())
		case <-t.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// do sends a request and decodes a 200 JSON response into target, which
// may be nil.
func (c *Client) do(ctx context.Context, method, path string, admin bool, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.AdminKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
