// Package analysis produces AI-generated diagnostic summaries for alerts.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// DefaultBaseURL is the OpenAI-compatible API endpoint.
const DefaultBaseURL = "https://api.openai.com"

// DefaultModel is used when the config does not name one.
const DefaultModel = "gpt-4"

// Config holds AI provider settings. An empty APIKey disables summarization.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration // per-request timeout (default 30s)
}

// Summarizer calls an OpenAI-compatible chat-completions endpoint to turn
// an alert plus its history into a free-text diagnostic analysis.
// Summarization is best-effort: callers treat every error as "analysis
// omitted".
type Summarizer struct {
	config     Config
	httpClient *http.Client
}

// NewSummarizer creates a Summarizer. Returns nil (no summarizer, analysis
// omitted everywhere) when no API key is configured.
func NewSummarizer(config Config) *Summarizer {
	if config.APIKey == "" {
		return nil
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Summarizer{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BuildPrompt formats the fixed-structure diagnostic prompt from an alert
// and up to five historical samples.
func BuildPrompt(alert models.Alert, history []models.HistoricalSample) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analise o seguinte alerta do Zabbix:\n\n")
	fmt.Fprintf(&b, "Host: %s\n", alert.Host)
	fmt.Fprintf(&b, "Mensagem: %s\n", alert.Message)
	fmt.Fprintf(&b, "Últimos %d valores históricos:\n", len(history))
	for i, h := range history {
		fmt.Fprintf(&b, "%d. Valor: %s (%s)\n", i+1, h.Value, h.Time().Format("02/01/2006 15:04:05"))
	}
	b.WriteString("\nPor favor, forneça:\n")
	b.WriteString("1. Uma análise técnica do problema\n")
	b.WriteString("2. Possíveis causas\n")
	b.WriteString("3. Sugestões de resolução\n")
	b.WriteString("4. Nível de urgência (Alto/Médio/Baixo)\n\n")
	b.WriteString("Formate a resposta de forma clara e objetiva.")

	return b.String()
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends the diagnostic prompt to the provider and returns the
// analysis text.
func (s *Summarizer) Summarize(ctx context.Context, alert models.Alert, history []models.HistoricalSample) (string, error) {
	prompt := BuildPrompt(alert, history)

	body, err := json.Marshal(chatRequest{
		Model:    s.config.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimSuffix(s.config.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat API status %d: %s", resp.StatusCode, string(data))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Model returns the configured chat model.
func (s *Summarizer) Model() string {
	return s.config.Model
}
