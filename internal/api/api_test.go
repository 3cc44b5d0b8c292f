package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/good-yellow-bee/alertbridge/internal/gateway"
	"github.com/good-yellow-bee/alertbridge/internal/models"
	"github.com/good-yellow-bee/alertbridge/internal/pipeline"
)

type stubProcessor struct{}

func (stubProcessor) Process(_ context.Context, sub pipeline.Submission) (*pipeline.Result, error) {
	return &pipeline.Result{
		Alert: models.Alert{
			ID:             "alert-1",
			Host:           sub.Host,
			TriggerID:      sub.TriggerID,
			Severity:       models.SeverityInfo,
			Message:        sub.Message,
			ReceivedAt:     time.Now(),
			WhatsAppStatus: "success",
		},
	}, nil
}

type stubAlertLog struct{}

func (stubAlertLog) Alerts() []models.Alert      { return []models.Alert{} }
func (stubAlertLog) Audit() []models.AuditRecord { return []models.AuditRecord{} }

type stubGateway struct{}

func (stubGateway) ConnectionStatus(_ context.Context) (gateway.SessionState, error) {
	return gateway.StateConnected, nil
}
func (stubGateway) RequestPairingCode(_ context.Context) (string, error) {
	return "", gateway.ErrAlreadyConnected
}
func (stubGateway) SendText(_ context.Context, _, _ string) error { return nil }

type stubDirectory struct{}

func (stubDirectory) All() map[models.Severity][]string {
	return map[models.Severity][]string{}
}
func (stubDirectory) Add(_ models.Severity, _ string) error    { return nil }
func (stubDirectory) Remove(_ models.Severity, _ string) error { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &Config{
		Address:   ":0",
		JWTSecret: []byte("test-jwt-secret-32-bytes-long!!"),
		Username:  "admin",
		Password:  "s3cret",
	}
	srv, err := New(cfg, stubProcessor{}, stubAlertLog{}, stubGateway{}, stubDirectory{})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAlertIngestionIsOpen(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	body := []byte(`{"host":"web-01","triggerId":"13491","mensagem":"disk full"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/alerta", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/phones"},
		{http.MethodDelete, "/api/phones/CRITICAL/5511999990001"},
		{http.MethodGet, "/api/whatsapp/qr"},
		{http.MethodPost, "/api/whatsapp/send"},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(`{}`)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestLoginThenAccessProtectedRoute(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	// Login
	body := []byte(`{"username":"admin","password":"s3cret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var loginResp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Data.AccessToken == "" {
		t.Fatal("expected non-empty access token")
	}

	// Protected request with the token
	sendBody := []byte(`{"phone":"5511999990001","message":"ping"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/whatsapp/send", bytes.NewReader(sendBody))
	req.Header.Set("Authorization", "Bearer "+loginResp.Data.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestPublicReadRoutes(t *testing.T) {
	srv := testServer(t)
	router := srv.setupRouter()

	paths := []string{"/api/alerta", "/api/logs", "/api/phones", "/api/whatsapp/status"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, stubProcessor{}, stubAlertLog{}, stubGateway{}, stubDirectory{})
	if err == nil {
		t.Error("expected error for nil config")
	}

	_, err = New(&Config{Address: ":0", Password: "x"}, stubProcessor{}, stubAlertLog{}, stubGateway{}, stubDirectory{})
	if err == nil {
		t.Error("expected error for missing JWT secret")
	}

	_, err = New(&Config{Address: ":0", JWTSecret: []byte("secret")}, stubProcessor{}, stubAlertLog{}, stubGateway{}, stubDirectory{})
	if err == nil {
		t.Error("expected error for missing dashboard password")
	}
}
