// Package pipeline orchestrates alert processing: classify, enrich,
// summarize, compose, fan out to recipients and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/alertbridge/internal/analysis"
	"github.com/good-yellow-bee/alertbridge/internal/metrics"
	"github.com/good-yellow-bee/alertbridge/internal/models"
	"github.com/good-yellow-bee/alertbridge/internal/monitoring"
)

// MonitoringClient fetches diagnostic context from the monitoring system.
type MonitoringClient interface {
	TriggerItem(ctx context.Context, triggerID string) (string, error)
	History(ctx context.Context, itemID string, limit int) ([]models.HistoricalSample, error)
}

// Analyzer produces a free-text diagnostic analysis. Best-effort: every
// error degrades to "analysis omitted".
type Analyzer interface {
	Summarize(ctx context.Context, alert models.Alert, history []models.HistoricalSample) (string, error)
}

// Sender delivers one message to one recipient.
type Sender interface {
	SendText(ctx context.Context, recipient, text string) error
}

// RecipientDirectory resolves the recipient set for a severity.
type RecipientDirectory interface {
	Recipients(sev models.Severity) ([]string, error)
}

// Recorder persists processed alerts.
type Recorder interface {
	Append(rec models.AuditRecord)
}

// StorageError wraps a failure of a required collaborator (recipient
// directory or alert log). It is the only fatal pipeline error class.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Submission is a raw alert submission. SeverityHint, when it parses to a
// valid severity, bypasses classification (directly-submitted alerts).
type Submission struct {
	Host         string
	TriggerID    string
	Message      string
	SeverityHint string
	Priority     int
}

// Result is the outcome of one pipeline run.
type Result struct {
	Alert              models.Alert
	RecipientsNotified []string
	Outcomes           []models.DeliveryOutcome
}

// Pipeline is the alert-to-notification orchestrator.
type Pipeline struct {
	monitoring MonitoringClient
	analyzer   Analyzer
	sender     Sender
	directory  RecipientDirectory
	recorder   Recorder
}

// New creates a pipeline. monitoring and analyzer may be nil; the
// corresponding steps then degrade to "no diagnostics" / "no analysis".
func New(mon MonitoringClient, analyzer Analyzer, sender Sender, dir RecipientDirectory, rec Recorder) (*Pipeline, error) {
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if dir == nil {
		return nil, fmt.Errorf("recipient directory is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("recorder is required")
	}

	return &Pipeline{
		monitoring: mon,
		analyzer:   analyzer,
		sender:     sender,
		directory:  dir,
		recorder:   rec,
	}, nil
}

// Process runs the full pipeline for one submission. Upstream integration
// failures (diagnostics, AI, individual sends) degrade gracefully; only a
// recipient-directory or alert-log failure is returned as an error.
func (p *Pipeline) Process(ctx context.Context, sub Submission) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	alert := models.Alert{
		ID:             uuid.New().String(),
		Host:           sub.Host,
		TriggerID:      sub.TriggerID,
		Message:        sub.Message,
		ReceivedAt:     time.Now().UTC(),
		WhatsAppStatus: "pending",
	}

	// Step 1: severity. A valid hint wins; classification is total and
	// never fails.
	if sev, ok := models.ParseSeverity(sub.SeverityHint); ok {
		alert.Severity = sev
	} else {
		alert.Severity = models.ClassifySeverity(sub.Message, sub.Priority)
	}
	metrics.AlertsProcessedTotal.WithLabelValues(string(alert.Severity)).Inc()

	// Step 2: diagnostic context, best-effort.
	history := p.fetchHistory(ctx, alert)

	// Step 3: AI analysis, best-effort.
	aiText, prompt := p.summarize(ctx, alert, history)

	// Step 4: compose.
	message := ComposeMessage(alert, aiText)

	// Step 5: resolve recipients. Directory failure is fatal; an empty
	// bucket is recorded and skipped.
	recipients, err := p.directory.Recipients(alert.Severity)
	if err != nil {
		return nil, &StorageError{Op: "resolve recipients", Err: err}
	}

	// Step 6: fan out. Each recipient's outcome is independent; one
	// failure never blocks the others.
	var outcomes []models.DeliveryOutcome
	if len(recipients) == 0 {
		log.Printf("alert %s: no recipients configured for severity %s", alert.ID, alert.Severity)
		outcomes = []models.DeliveryOutcome{{
			Success:     false,
			ErrorDetail: "no recipients configured for severity " + string(alert.Severity),
		}}
	} else {
		outcomes = p.fanOut(ctx, recipients, message)
	}

	alert.WhatsAppStatus = models.DeliveryStatus(outcomes)
	if len(recipients) == 0 {
		// Nothing was attempted; keep the original vocabulary.
		alert.WhatsAppStatus = "pending"
	}

	// Step 7: record.
	p.recorder.Append(models.AuditRecord{
		Alert:      alert,
		History:    history,
		Prompt:     prompt,
		AIAnalysis: aiText,
		Recipients: recipients,
		Outcomes:   outcomes,
	})

	return &Result{
		Alert:              alert,
		RecipientsNotified: recipients,
		Outcomes:           outcomes,
	}, nil
}

// fetchHistory resolves the trigger's item and fetches its recent samples.
// Every failure is logged and degrades to "no diagnostics".
func (p *Pipeline) fetchHistory(ctx context.Context, alert models.Alert) []models.HistoricalSample {
	if p.monitoring == nil || alert.TriggerID == "" {
		return nil
	}

	itemID, err := p.monitoring.TriggerItem(ctx, alert.TriggerID)
	if err != nil {
		if errors.Is(err, monitoring.ErrTriggerNotFound) {
			log.Printf("alert %s: trigger %s has no item, skipping diagnostics", alert.ID, alert.TriggerID)
		} else {
			log.Printf("alert %s: trigger lookup failed: %v", alert.ID, err)
		}
		return nil
	}

	history, err := p.monitoring.History(ctx, itemID, monitoring.HistoryLimit)
	if err != nil {
		log.Printf("alert %s: history fetch failed: %v", alert.ID, err)
		return nil
	}
	return history
}

// summarize runs the optional AI analysis. Returns the analysis text and
// the prompt used (for the audit trail); both empty when no analyzer is
// configured.
func (p *Pipeline) summarize(ctx context.Context, alert models.Alert, history []models.HistoricalSample) (text, prompt string) {
	if p.analyzer == nil {
		metrics.AnalysisTotal.WithLabelValues("skipped").Inc()
		return "", ""
	}

	prompt = analysis.BuildPrompt(alert, history)

	text, err := p.analyzer.Summarize(ctx, alert, history)
	if err != nil {
		metrics.AnalysisTotal.WithLabelValues("error").Inc()
		log.Printf("alert %s: AI analysis failed: %v", alert.ID, err)
		return "", prompt
	}
	metrics.AnalysisTotal.WithLabelValues("ok").Inc()
	return text, prompt
}

// fanOut sends the message to every recipient concurrently and joins on
// all outcomes.
func (p *Pipeline) fanOut(ctx context.Context, recipients []string, message string) []models.DeliveryOutcome {
	outcomes := make([]models.DeliveryOutcome, len(recipients))

	var g errgroup.Group
	for i, recipient := range recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			outcome := models.DeliveryOutcome{Recipient: recipient, Success: true}
			if err := p.sender.SendText(ctx, recipient, message); err != nil {
				outcome.Success = false
				outcome.ErrorDetail = err.Error()
				metrics.DeliveriesTotal.WithLabelValues("error").Inc()
				log.Printf("delivery to %s failed: %v", recipient, err)
			} else {
				metrics.DeliveriesTotal.WithLabelValues("ok").Inc()
			}
			outcomes[i] = outcome
			return nil
		})
	}
	// Errors are captured per-outcome; the group never fails.
	g.Wait()

	return outcomes
}
