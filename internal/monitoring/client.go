// Package monitoring provides a client for the Zabbix JSON-RPC API.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/good-yellow-bee/alertbridge/internal/metrics"
	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// invalidSessionCode is the JSON-RPC error code Zabbix returns when the
// cached auth token is no longer valid.
const invalidSessionCode = -32602

// HistoryLimit is the number of historical samples fetched per item.
const HistoryLimit = 5

// Config holds monitoring endpoint settings.
type Config struct {
	URL      string // JSON-RPC endpoint, e.g. http://zabbix/api_jsonrpc.php
	Username string
	Password string
	Timeout  time.Duration // per-request timeout (default 15s)
}

// Validate validates the monitoring configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("monitoring URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("monitoring username is required")
	}
	return nil
}

// Client is an authenticated Zabbix JSON-RPC client. It caches the session
// token and transparently re-authenticates once when the server reports an
// invalid session.
type Client struct {
	config     Config
	httpClient *http.Client

	mu    sync.Mutex
	token string

	// auth serializes concurrent (re-)authentication attempts.
	auth singleflight.Group
}

// NewClient creates a monitoring client.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitoring config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	Auth    any    `json:"auth,omitempty"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// post issues one JSON-RPC request and decodes the envelope.
func (c *Client) post(ctx context.Context, req rpcRequest) (*rpcResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{System: "zabbix", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{
			System: "zabbix",
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(data)),
		}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &UpstreamError{System: "zabbix", Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	return &rpcResp, nil
}

// Login authenticates with the configured credentials and caches the
// session token. Concurrent callers share a single network attempt.
func (c *Client) Login(ctx context.Context) (string, error) {
	token, err, _ := c.auth.Do("login", func() (any, error) {
		resp, err := c.post(ctx, rpcRequest{
			JSONRPC: "2.0",
			Method:  "user.login",
			Params: map[string]string{
				"username": c.config.Username,
				"password": c.config.Password,
			},
			ID: 1,
		})
		if err != nil {
			return "", err
		}
		if resp.Error != nil {
			return "", &AuthError{System: "zabbix", Detail: resp.Error.Message + " " + resp.Error.Data}
		}

		var token string
		if err := json.Unmarshal(resp.Result, &token); err != nil {
			return "", &UpstreamError{System: "zabbix", Detail: fmt.Sprintf("malformed login result: %v", err)}
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Client) cachedToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Call issues an authenticated RPC call, decoding the result into result.
// On an invalid-session error it clears the cached token, re-authenticates
// and retries the call exactly once.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	retried := false
	for {
		token := c.cachedToken()
		if token == "" {
			var err error
			if token, err = c.Login(ctx); err != nil {
				return err
			}
		}

		resp, err := c.post(ctx, rpcRequest{
			JSONRPC: "2.0",
			Method:  method,
			Params:  params,
			Auth:    token,
			ID:      1,
		})
		if err != nil {
			metrics.MonitoringCallsTotal.WithLabelValues(method, "error").Inc()
			return err
		}

		if resp.Error != nil {
			if resp.Error.Code == invalidSessionCode && !retried {
				retried = true
				c.clearToken()
				continue
			}
			metrics.MonitoringCallsTotal.WithLabelValues(method, "error").Inc()
			return &UpstreamError{
				System: "zabbix",
				Detail: fmt.Sprintf("%s: %s %s", method, resp.Error.Message, resp.Error.Data),
			}
		}

		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				metrics.MonitoringCallsTotal.WithLabelValues(method, "error").Inc()
				return &UpstreamError{System: "zabbix", Detail: fmt.Sprintf("malformed %s result: %v", method, err)}
			}
		}
		metrics.MonitoringCallsTotal.WithLabelValues(method, "ok").Inc()
		return nil
	}
}

type trigger struct {
	TriggerID string `json:"triggerid"`
	Items     []struct {
		ItemID string `json:"itemid"`
	} `json:"items"`
}

// TriggerItem resolves the item behind a trigger. Returns
// ErrTriggerNotFound if the trigger does not exist or has no items.
func (c *Client) TriggerItem(ctx context.Context, triggerID string) (string, error) {
	var triggers []trigger
	err := c.Call(ctx, "trigger.get", map[string]any{
		"triggerids":  triggerID,
		"output":      "extend",
		"selectItems": "extend",
	}, &triggers)
	if err != nil {
		return "", err
	}

	if len(triggers) == 0 || len(triggers[0].Items) == 0 {
		return "", ErrTriggerNotFound
	}
	return triggers[0].Items[0].ItemID, nil
}

// History fetches up to limit historical samples for an item, newest first.
func (c *Client) History(ctx context.Context, itemID string, limit int) ([]models.HistoricalSample, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	var raw []struct {
		Value string `json:"value"`
		Clock string `json:"clock"`
	}
	err := c.Call(ctx, "history.get", map[string]any{
		"itemids":   itemID,
		"output":    "extend",
		"sortfield": "clock",
		"sortorder": "DESC",
		"limit":     limit,
	}, &raw)
	if err != nil {
		return nil, err
	}

	samples := make([]models.HistoricalSample, 0, len(raw))
	for _, r := range raw {
		clock, err := strconv.ParseInt(r.Clock, 10, 64)
		if err != nil {
			return nil, &UpstreamError{System: "zabbix", Detail: fmt.Sprintf("malformed clock %q", r.Clock)}
		}
		samples = append(samples, models.HistoricalSample{Value: r.Value, Clock: clock})
	}
	return samples, nil
}
