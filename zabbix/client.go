// Package zabbix is a minimal JSON-RPC 2.0 client for the Zabbix API,
// covering the item and history lookups the optical telemetry path needs.
package zabbix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Client talks to a Zabbix server's api_jsonrpc.php endpoint. The auth
// token from user.login is cached in-process and refreshed once when the
// server reports it expired.
type Client struct {
	URL      string
	User     string
	Password string
	HTTP     *http.Client

	mu    sync.Mutex
	token string
	seq   atomic.Int64
}

// NewClient creates a client for the given API URL. A trailing
// /api_jsonrpc.php is appended when missing so configuration can carry the
// bare server address.
func NewClient(apiURL, user, password string) *Client {
	u := strings.TrimRight(apiURL, "/")
	if !strings.HasSuffix(u, "api_jsonrpc.php") {
		u += "/api_jsonrpc.php"
	}
	return &Client{
		URL:      u,
		User:     user,
		Password: password,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Login authenticates and caches the session token.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	var token string
	params := map[string]string{"username": c.User, "password": c.Password}
	if err := c.do(ctx, "user.login", params, "", &token); err != nil {
		return fmt.Errorf("zabbix login: %w", err)
	}
	c.token = token
	return nil
}

// Call performs an authenticated API request, decoding the result into out.
// On an expired or invalid session it re-authenticates once and retries.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	c.mu.Lock()
	if c.token == "" {
		if err := c.loginLocked(ctx); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	token := c.token
	c.mu.Unlock()

	err := c.do(ctx, method, params, token, out)
	if err == nil || !isAuthError(err) {
		return err
	}

	c.mu.Lock()
	c.token = ""
	if lerr := c.loginLocked(ctx); lerr != nil {
		c.mu.Unlock()
		return lerr
	}
	token = c.token
	c.mu.Unlock()

	return c.do(ctx, method, params, token, out)
}

func (c *Client) do(ctx context.Context, method string, params any, token string, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		Auth:    token,
		ID:      int(c.seq.Add(1)),
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("zabbix %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zabbix %s: unexpected status %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("zabbix %s: decode response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("zabbix %s: %w", method, rr.Error)
	}
	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("zabbix %s: decode result: %w", method, err)
		}
	}
	return nil
}

func isAuthError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not authorised") ||
		strings.Contains(s, "not authorized") ||
		strings.Contains(s, "session terminated")
}

// ItemsGet runs item.get with the given params.
func (c *Client) ItemsGet(ctx context.Context, params map[string]any) ([]Item, error) {
	var items []Item
	if err := c.Call(ctx, "item.get", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// HistoryGet runs history.get with the given params.
func (c *Client) HistoryGet(ctx context.Context, params map[string]any) ([]HistoryEntry, error) {
	var hist []HistoryEntry
	if err := c.Call(ctx, "history.get", params, &hist); err != nil {
		return nil, err
	}
	return hist, nil
}
