// Package gateway owns the WhatsApp messaging-gateway session: token
// acquisition, connection-status polling, pairing-code retrieval and
// message send.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/alertbridge/internal/metrics"
)

// Config holds messaging-gateway settings.
type Config struct {
	BaseURL   string
	SecretKey string
	Session   string        // gateway session name (default "default")
	Timeout   time.Duration // per-request timeout (default 15s)

	// SendRate / SendBurst throttle outbound messages. Gateways ban
	// sessions that flood; default 1 msg/s with burst 3.
	SendRate  float64
	SendBurst int
}

// Validate validates the gateway configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("gateway secret key is required")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Session == "" {
		c.Session = "default"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.SendRate <= 0 {
		c.SendRate = 1
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 3
	}
}

// Client is the messaging-gateway client. A single instance owns the
// process-wide session; all state transitions happen under its mutex and
// authentication is serialized through a singleflight group.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	state       SessionState
	token       string
	pairingCode string

	auth singleflight.Group

	// onStateChange, when set, observes every state transition.
	onStateChange func(SessionState)
}

// NewClient creates a gateway client in the Uninitialized state.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}
	config.setDefaults()

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.SendRate), config.SendBurst),
		state:   StateUninitialized,
	}, nil
}

// OnStateChange registers an observer for session state transitions.
// Must be called before the client is used.
func (c *Client) OnStateChange(fn func(SessionState)) {
	c.onStateChange = fn
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// setState transitions the session state. Callers must hold c.mu.
func (c *Client) setState(s SessionState) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onStateChange != nil {
		c.onStateChange(s)
	}
}

// reset drops the token and pairing code and returns to Uninitialized.
// Called on 401/invalid-token responses from any operation.
func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.pairingCode = ""
	c.setState(StateUninitialized)
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.config.BaseURL, "/") + path
}

// do issues a request with the given bearer credential and decodes the
// JSON body into out (when non-nil). A 401 resets the session.
func (c *Client) do(ctx context.Context, method, path, bearer string, payload, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal gateway request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return 0, fmt.Errorf("create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.reset()
		return resp.StatusCode, fmt.Errorf("gateway rejected token")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, fmt.Errorf("gateway status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// EnsureAuthenticated returns a session token, performing network
// authentication only when no valid token is cached. Concurrent callers
// share a single in-flight attempt.
func (c *Client) EnsureAuthenticated(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, err, _ := c.auth.Do("token", func() (any, error) {
		// Re-check under the flight: a concurrent caller may have won.
		c.mu.Lock()
		if c.token != "" {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.setState(StateAuthenticating)
		c.mu.Unlock()

		var result struct {
			Token string `json:"token"`
		}
		status, err := c.do(ctx, http.MethodPost, "/api/v1/auth/generate-token", c.config.SecretKey,
			map[string]string{"session": c.config.Session}, &result)
		if err != nil {
			c.mu.Lock()
			c.setState(StateUninitialized)
			c.mu.Unlock()
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return "", &AuthError{Detail: err.Error()}
			}
			return "", err
		}
		if result.Token == "" {
			c.mu.Lock()
			c.setState(StateUninitialized)
			c.mu.Unlock()
			return "", &AuthError{Detail: "gateway returned empty token"}
		}

		c.mu.Lock()
		c.token = result.Token
		c.setState(StateAuthenticatedDisconnected)
		c.mu.Unlock()
		return result.Token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

type statusResponse struct {
	Status string `json:"status"`
	QRCode string `json:"qrcode"`
}

// ConnectionStatus performs a single status poll and transitions the
// session state according to the normalized answer.
func (c *Client) ConnectionStatus(ctx context.Context) (SessionState, error) {
	token, err := c.EnsureAuthenticated(ctx)
	if err != nil {
		return c.State(), err
	}

	var resp statusResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/session/status", token, nil, &resp); err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch parseUpstreamStatus(resp.Status) {
	case statusConnected:
		c.pairingCode = ""
		c.setState(StateConnected)
	case statusDisconnected:
		c.pairingCode = ""
		c.setState(StateAuthenticatedDisconnected)
	case statusPairing:
		c.setState(StateAwaitingPairing)
	case statusInitializing:
		// Transitional; keep the current state.
	default:
		// Unknown vocabulary is treated as disconnected rather than
		// letting raw strings drive behavior.
		c.setState(StateAuthenticatedDisconnected)
	}
	return c.state, nil
}

// RequestPairingCode starts a gateway session and returns the base64
// pairing code to scan. Fails with ErrAlreadyConnected when the session is
// connected, and ErrPairingUnavailable when the gateway reports neither a
// live connection nor a code.
func (c *Client) RequestPairingCode(ctx context.Context) (string, error) {
	if c.State() == StateConnected {
		return "", ErrAlreadyConnected
	}

	token, err := c.EnsureAuthenticated(ctx)
	if err != nil {
		return "", err
	}

	var resp statusResponse
	payload := map[string]any{"session": c.config.Session, "waitQrCode": true}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/session/start", token, payload, &resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if parseUpstreamStatus(resp.Status) == statusConnected {
		c.pairingCode = ""
		c.setState(StateConnected)
		return "", ErrAlreadyConnected
	}
	if resp.QRCode == "" {
		return "", ErrPairingUnavailable
	}

	c.pairingCode = resp.QRCode
	c.setState(StateAwaitingPairing)
	return resp.QRCode, nil
}

// PairingCode returns the currently held pairing code, if any.
func (c *Client) PairingCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pairingCode
}

// WaitForPairing polls the connection status until the gateway reports
// connected or the timeout expires. On expiry the session reverts to
// AuthenticatedDisconnected, the pairing code is discarded and
// ErrPairingTimeout is returned; a fresh RequestPairingCode is required.
func (c *Client) WaitForPairing(ctx context.Context, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 2500 * time.Millisecond
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, err := c.ConnectionStatus(ctx)
		if err == nil && state == StateConnected {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			c.mu.Lock()
			c.pairingCode = ""
			if c.state == StateAwaitingPairing {
				c.setState(StateAuthenticatedDisconnected)
			}
			c.mu.Unlock()
			return ErrPairingTimeout
		case <-ticker.C:
		}
	}
}

// SendText sends a text message to one recipient. Failures surface as
// *DeliveryError; retry policy belongs to the caller.
func (c *Client) SendText(ctx context.Context, recipient, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Recipient: recipient, Detail: err.Error()}
	}

	token, err := c.EnsureAuthenticated(ctx)
	if err != nil {
		return &DeliveryError{Recipient: recipient, Detail: err.Error()}
	}

	payload := map[string]string{
		"session": c.config.Session,
		"number":  recipient,
		"text":    text,
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/message/send-text", token, payload, nil); err != nil {
		metrics.GatewaySendsTotal.WithLabelValues("error").Inc()
		return &DeliveryError{Recipient: recipient, Detail: err.Error()}
	}
	metrics.GatewaySendsTotal.WithLabelValues("ok").Inc()
	return nil
}
