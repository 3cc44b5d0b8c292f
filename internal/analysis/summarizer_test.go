package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

func TestNewSummarizerWithoutKey(t *testing.T) {
	if s := NewSummarizer(Config{}); s != nil {
		t.Error("NewSummarizer without API key should return nil")
	}
}

func TestBuildPrompt(t *testing.T) {
	alert := models.Alert{Host: "db1", Message: "Service DOWN"}
	history := []models.HistoricalSample{
		{Value: "98.5", Clock: 1700000300},
		{Value: "97.1", Clock: 1700000200},
	}

	prompt := BuildPrompt(alert, history)

	for _, want := range []string{
		"Host: db1",
		"Mensagem: Service DOWN",
		"1. Valor: 98.5",
		"2. Valor: 97.1",
		"Nível de urgência",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptNoHistory(t *testing.T) {
	prompt := BuildPrompt(models.Alert{Host: "web1", Message: "ok"}, nil)
	if !strings.Contains(prompt, "Últimos 0 valores históricos") {
		t.Errorf("prompt should note empty history:\n%s", prompt)
	}
}

func TestSummarize(t *testing.T) {
	var gotAuth string
	var gotModel string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = req.Model

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Disco cheio. Urgência: Alto."}},
			},
		})
	}))
	defer srv.Close()

	s := NewSummarizer(Config{APIKey: "test-key", BaseURL: srv.URL})

	analysis, err := s.Summarize(context.Background(), models.Alert{Host: "db1", Message: "down"}, nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if analysis != "Disco cheio. Urgência: Alto." {
		t.Errorf("analysis = %q", analysis)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultModel)
	}
}

func TestSummarizeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewSummarizer(Config{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := s.Summarize(context.Background(), models.Alert{}, nil); err == nil {
		t.Error("expected error on provider failure")
	}
}

func TestSummarizeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	s := NewSummarizer(Config{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := s.Summarize(context.Background(), models.Alert{}, nil); err == nil {
		t.Error("expected error on empty choices")
	}
}
