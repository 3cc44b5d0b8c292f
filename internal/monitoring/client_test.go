package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeZabbix is a scriptable JSON-RPC endpoint.
type fakeZabbix struct {
	mu         sync.Mutex
	loginCalls int
	callCount  map[string]int

	// failLoginWith, when set, rejects user.login with this message.
	failLoginWith string
	// invalidSessionOnce makes the first authenticated call fail with the
	// invalid-session error code.
	invalidSessionOnce bool
	invalidFired       bool

	triggers map[string]string // triggerID -> itemID
	history  []map[string]string
}

func newFakeZabbix() *fakeZabbix {
	return &fakeZabbix{
		callCount: make(map[string]int),
		triggers:  make(map[string]string),
	}
}

func (f *fakeZabbix) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
		Auth   any            `json:"auth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount[req.Method]++

	writeResult := func(result any) {
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": result, "id": 1})
	}
	writeError := func(code int, message string) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": code, "message": message, "data": ""},
			"id":      1,
		})
	}

	switch req.Method {
	case "user.login":
		f.loginCalls++
		if f.failLoginWith != "" {
			writeError(-32500, f.failLoginWith)
			return
		}
		writeResult("token-1")
	case "trigger.get":
		if f.invalidSessionOnce && !f.invalidFired {
			f.invalidFired = true
			writeError(-32602, "Session terminated, re-login, please.")
			return
		}
		id, _ := req.Params["triggerids"].(string)
		itemID, ok := f.triggers[id]
		if !ok {
			writeResult([]any{})
			return
		}
		writeResult([]map[string]any{{
			"triggerid": id,
			"items":     []map[string]string{{"itemid": itemID}},
		}})
	case "history.get":
		writeResult(f.history)
	default:
		writeError(-32601, "unknown method")
	}
}

func newTestClient(t *testing.T, fake *fakeZabbix) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, Username: "Admin", Password: "zabbix"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestLoginCachesToken(t *testing.T) {
	fake := newFakeZabbix()
	client := newTestClient(t, fake)
	ctx := context.Background()

	fake.triggers["42"] = "1001"

	if _, err := client.TriggerItem(ctx, "42"); err != nil {
		t.Fatalf("TriggerItem: %v", err)
	}
	if _, err := client.TriggerItem(ctx, "42"); err != nil {
		t.Fatalf("TriggerItem: %v", err)
	}

	if fake.loginCalls != 1 {
		t.Errorf("login calls = %d, want 1 (token cached)", fake.loginCalls)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	fake := newFakeZabbix()
	fake.failLoginWith = "Login name or password is incorrect."
	client := newTestClient(t, fake)

	_, err := client.Login(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}

func TestInvalidSessionRetriesOnce(t *testing.T) {
	fake := newFakeZabbix()
	fake.invalidSessionOnce = true
	fake.triggers["42"] = "1001"
	client := newTestClient(t, fake)

	itemID, err := client.TriggerItem(context.Background(), "42")
	if err != nil {
		t.Fatalf("TriggerItem after invalid session: %v", err)
	}
	if itemID != "1001" {
		t.Errorf("itemID = %q, want 1001", itemID)
	}
	if fake.loginCalls != 2 {
		t.Errorf("login calls = %d, want 2 (initial + one re-auth)", fake.loginCalls)
	}
	if fake.callCount["trigger.get"] != 2 {
		t.Errorf("trigger.get calls = %d, want 2 (single retry)", fake.callCount["trigger.get"])
	}
}

func TestPersistentInvalidSessionSurfacesError(t *testing.T) {
	// Every authenticated call fails with invalid session; the client must
	// give up after a single re-authentication instead of looping.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "user.login" {
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": "tok", "id": 1})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32602, "message": "Session terminated", "data": ""},
			"id":      1,
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Username: "Admin", Password: "zabbix"})
	if err != nil {
		t.Fatal(err)
	}

	err = client.Call(context.Background(), "trigger.get", nil, nil)
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError after exhausted retry", err)
	}
}

func TestTriggerItemNotFound(t *testing.T) {
	fake := newFakeZabbix()
	client := newTestClient(t, fake)

	_, err := client.TriggerItem(context.Background(), "missing")
	if !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("error = %v, want ErrTriggerNotFound", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	fake := newFakeZabbix()
	fake.history = []map[string]string{
		{"value": "98.5", "clock": "1700000300"},
		{"value": "97.1", "clock": "1700000200"},
		{"value": "95.0", "clock": "1700000100"},
	}
	client := newTestClient(t, fake)

	samples, err := client.History(context.Background(), "1001", 5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("len = %d, want 3", len(samples))
	}
	if samples[0].Value != "98.5" || samples[0].Clock != 1700000300 {
		t.Errorf("first sample = %+v, want newest", samples[0])
	}
	if samples[2].Clock >= samples[0].Clock {
		t.Error("samples are not ordered newest first")
	}
}

func TestUpstreamUnreachable(t *testing.T) {
	client, err := NewClient(Config{URL: "http://127.0.0.1:1", Username: "Admin"})
	if err != nil {
		t.Fatal(err)
	}

	_, lerr := client.Login(context.Background())
	var upstream *UpstreamError
	if !errors.As(lerr, &upstream) {
		t.Errorf("error = %v, want *UpstreamError", lerr)
	}
}
