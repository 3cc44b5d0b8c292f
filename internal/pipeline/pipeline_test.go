package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/good-yellow-bee/alertbridge/internal/models"
	"github.com/good-yellow-bee/alertbridge/internal/monitoring"
)

// Mock collaborators

type mockMonitoring struct {
	itemID     string
	triggerErr error
	history    []models.HistoricalSample
	historyErr error
}

func (m *mockMonitoring) TriggerItem(ctx context.Context, triggerID string) (string, error) {
	if m.triggerErr != nil {
		return "", m.triggerErr
	}
	return m.itemID, nil
}

func (m *mockMonitoring) History(ctx context.Context, itemID string, limit int) ([]models.HistoricalSample, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

type mockAnalyzer struct {
	text string
	err  error
}

func (m *mockAnalyzer) Summarize(ctx context.Context, alert models.Alert, history []models.HistoricalSample) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

type mockSender struct {
	mu       sync.Mutex
	sent     []string
	failFor  map[string]error
	messages map[string]string
}

func newMockSender() *mockSender {
	return &mockSender{
		failFor:  make(map[string]error),
		messages: make(map[string]string),
	}
}

func (m *mockSender) SendText(ctx context.Context, recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipient)
	m.messages[recipient] = text
	if err, ok := m.failFor[recipient]; ok {
		return err
	}
	return nil
}

type mockDirectory struct {
	buckets map[models.Severity][]string
	err     error
}

func (m *mockDirectory) Recipients(sev models.Severity) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.buckets[sev], nil
}

type mockRecorder struct {
	records []models.AuditRecord
}

func (m *mockRecorder) Append(rec models.AuditRecord) {
	m.records = append(m.records, rec)
}

func newTestPipeline(t *testing.T, mon MonitoringClient, an Analyzer, sender Sender, dir RecipientDirectory, rec Recorder) *Pipeline {
	t.Helper()
	p, err := New(mon, an, sender, dir, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestProcessHappyPath(t *testing.T) {
	mon := &mockMonitoring{
		itemID:  "1001",
		history: []models.HistoricalSample{{Value: "98.5", Clock: 1700000300}},
	}
	analyzer := &mockAnalyzer{text: "Disco cheio."}
	sender := newMockSender()
	dir := &mockDirectory{buckets: map[models.Severity][]string{
		models.SeverityCritical: {"5511999999999"},
	}}
	rec := &mockRecorder{}

	p := newTestPipeline(t, mon, analyzer, sender, dir, rec)

	result, err := p.Process(context.Background(), Submission{
		Host:      "db1",
		TriggerID: "42",
		Message:   "Service DOWN",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Alert.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL", result.Alert.Severity)
	}
	if result.Alert.WhatsAppStatus != "success" {
		t.Errorf("whatsappStatus = %q, want success", result.Alert.WhatsAppStatus)
	}
	if len(result.Outcomes) != 1 || !result.Outcomes[0].Success {
		t.Errorf("outcomes = %+v", result.Outcomes)
	}

	msg := sender.messages["5511999999999"]
	if !strings.Contains(msg, "Disco cheio.") {
		t.Errorf("sent message missing analysis:\n%s", msg)
	}

	if len(rec.records) != 1 {
		t.Fatalf("records = %d, want 1", len(rec.records))
	}
	audit := rec.records[0]
	if audit.AIAnalysis != "Disco cheio." {
		t.Errorf("audit analysis = %q", audit.AIAnalysis)
	}
	if audit.Prompt == "" {
		t.Error("audit prompt should be recorded")
	}
	if len(audit.History) != 1 {
		t.Errorf("audit history = %+v", audit.History)
	}
}

func TestProcessFanOutIsolation(t *testing.T) {
	sender := newMockSender()
	sender.failFor["b"] = errors.New("number not on whatsapp")
	dir := &mockDirectory{buckets: map[models.Severity][]string{
		models.SeverityCritical: {"a", "b", "c"},
	}}
	rec := &mockRecorder{}

	p := newTestPipeline(t, nil, nil, sender, dir, rec)

	result, err := p.Process(context.Background(), Submission{
		Host: "db1", TriggerID: "42", Message: "DOWN",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(result.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(result.Outcomes))
	}
	wantSuccess := []bool{true, false, true}
	for i, want := range wantSuccess {
		if result.Outcomes[i].Success != want {
			t.Errorf("outcomes[%d].Success = %v, want %v", i, result.Outcomes[i].Success, want)
		}
	}
	if result.Outcomes[1].ErrorDetail == "" {
		t.Error("failed outcome missing error detail")
	}
	if result.Alert.WhatsAppStatus != "partial" {
		t.Errorf("whatsappStatus = %q, want partial", result.Alert.WhatsAppStatus)
	}
}

func TestProcessNoRecipients(t *testing.T) {
	sender := newMockSender()
	dir := &mockDirectory{buckets: map[models.Severity][]string{}}
	rec := &mockRecorder{}

	p := newTestPipeline(t, nil, nil, sender, dir, rec)

	result, err := p.Process(context.Background(), Submission{
		Host: "db1", TriggerID: "42", Message: "Service DOWN",
	})
	if err != nil {
		t.Fatalf("Process should succeed with no recipients, got %v", err)
	}

	if len(result.RecipientsNotified) != 0 {
		t.Errorf("recipients notified = %v, want none", result.RecipientsNotified)
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1 synthetic record", len(result.Outcomes))
	}
	if result.Outcomes[0].Success {
		t.Error("synthetic outcome should not be success")
	}
	if !strings.Contains(result.Outcomes[0].ErrorDetail, "no recipients") {
		t.Errorf("error detail = %q, want mention of no recipients", result.Outcomes[0].ErrorDetail)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sends attempted: %v", sender.sent)
	}
	if len(rec.records) != 1 {
		t.Error("alert should still be recorded")
	}
}

func TestProcessDirectoryFailureIsFatal(t *testing.T) {
	sender := newMockSender()
	dir := &mockDirectory{err: errors.New("disk read error")}
	rec := &mockRecorder{}

	p := newTestPipeline(t, nil, nil, sender, dir, rec)

	_, err := p.Process(context.Background(), Submission{Host: "h", Message: "m"})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("error = %v, want *StorageError", err)
	}
}

func TestProcessDiagnosticsDegradeGracefully(t *testing.T) {
	tests := []struct {
		name string
		mon  *mockMonitoring
	}{
		{"trigger not found", &mockMonitoring{triggerErr: monitoring.ErrTriggerNotFound}},
		{"upstream error", &mockMonitoring{triggerErr: &monitoring.UpstreamError{System: "zabbix", Detail: "timeout"}}},
		{"history error", &mockMonitoring{itemID: "1001", historyErr: &monitoring.UpstreamError{System: "zabbix", Detail: "5xx"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newMockSender()
			dir := &mockDirectory{buckets: map[models.Severity][]string{
				models.SeverityCritical: {"a"},
			}}
			rec := &mockRecorder{}

			p := newTestPipeline(t, tt.mon, nil, sender, dir, rec)

			result, err := p.Process(context.Background(), Submission{
				Host: "db1", TriggerID: "42", Message: "DOWN",
			})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if result.Alert.WhatsAppStatus != "success" {
				t.Errorf("whatsappStatus = %q, want success despite degraded diagnostics", result.Alert.WhatsAppStatus)
			}
			if len(rec.records[0].History) != 0 {
				t.Errorf("history = %+v, want empty", rec.records[0].History)
			}
		})
	}
}

func TestProcessAnalyzerFailureDegrades(t *testing.T) {
	sender := newMockSender()
	dir := &mockDirectory{buckets: map[models.Severity][]string{
		models.SeverityInfo: {"a"},
	}}
	rec := &mockRecorder{}
	analyzer := &mockAnalyzer{err: errors.New("quota exceeded")}

	p := newTestPipeline(t, nil, analyzer, sender, dir, rec)

	result, err := p.Process(context.Background(), Submission{Host: "h", Message: "all good"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Alert.WhatsAppStatus != "success" {
		t.Errorf("whatsappStatus = %q, want success", result.Alert.WhatsAppStatus)
	}
	if strings.Contains(sender.messages["a"], "Análise da IA") {
		t.Error("message should omit analysis section when analyzer fails")
	}
	if rec.records[0].AIAnalysis != "" {
		t.Error("audit should record no analysis on analyzer failure")
	}
}

func TestProcessSeverityHint(t *testing.T) {
	sender := newMockSender()
	dir := &mockDirectory{buckets: map[models.Severity][]string{
		models.SeverityWarning: {"a"},
	}}
	rec := &mockRecorder{}

	p := newTestPipeline(t, nil, nil, sender, dir, rec)

	// The hint overrides what classification would derive.
	result, err := p.Process(context.Background(), Submission{
		Host: "db1", Message: "Service DOWN", SeverityHint: "WARNING",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Alert.Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want WARNING from hint", result.Alert.Severity)
	}

	// An invalid hint falls back to classification.
	result, err = p.Process(context.Background(), Submission{
		Host: "db1", Message: "Service DOWN", SeverityHint: "bogus",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Alert.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL from classification", result.Alert.Severity)
	}
}
