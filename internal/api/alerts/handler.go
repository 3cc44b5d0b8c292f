// Package alerts exposes alert ingestion and the processed-alert log.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/good-yellow-bee/alertbridge/internal/api/respond"
	"github.com/good-yellow-bee/alertbridge/internal/models"
	"github.com/good-yellow-bee/alertbridge/internal/pipeline"
)

// Processor runs one alert through the notification pipeline.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Result, error)
}

// AlertLog reads processed alerts back out.
type AlertLog interface {
	Alerts() []models.Alert
	Audit() []models.AuditRecord
}

// Handler handles alert endpoints.
type Handler struct {
	processor   Processor
	alertLog    AlertLog
	development bool
}

// NewHandler creates a new alert handler.
func NewHandler(proc Processor, alertLog AlertLog, development bool) *Handler {
	return &Handler{
		processor:   proc,
		alertLog:    alertLog,
		development: development,
	}
}

// CreateRequest is an incoming alert submission. Field names follow the
// payload the monitoring webhook posts.
type CreateRequest struct {
	Host      string `json:"host"`
	TriggerID string `json:"triggerId"`
	Severity  string `json:"severity"`
	Message   string `json:"mensagem"`
	Priority  int    `json:"priority"`
}

// CreateResponse carries the processed alert plus delivery details.
type CreateResponse struct {
	models.Alert
	RecipientsNotified []string                 `json:"recipientsNotified"`
	DeliveryOutcomes   []models.DeliveryOutcome `json:"deliveryOutcomes"`
}

// Create ingests one alert and runs the pipeline synchronously.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, respond.BadRequest("invalid request body"))
		return
	}

	if err := ValidateSubmission(req); err != nil {
		respond.Err(w, respond.Validation(err.Error()))
		return
	}

	result, err := h.processor.Process(r.Context(), pipeline.Submission{
		Host:         req.Host,
		TriggerID:    req.TriggerID,
		Message:      req.Message,
		SeverityHint: req.Severity,
		Priority:     req.Priority,
	})
	if err != nil {
		var storageErr *pipeline.StorageError
		if errors.As(err, &storageErr) {
			log.Printf("process alert error: %v", err)
			respond.Err(w, respond.Storage(err.Error(), h.development))
			return
		}
		log.Printf("process alert error: %v", err)
		respond.Err(w, respond.Internal())
		return
	}

	log.Printf("alert processed: host=%s severity=%s status=%s",
		result.Alert.Host, result.Alert.Severity, result.Alert.WhatsAppStatus)

	respond.Created(w, &CreateResponse{
		Alert:              result.Alert,
		RecipientsNotified: result.RecipientsNotified,
		DeliveryOutcomes:   result.Outcomes,
	})
}

// List returns processed alerts, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.alertLog.Alerts())
}

// Logs returns the full audit records, newest first.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.alertLog.Audit())
}
