// Package models defines domain models for the alert bridge.
package models

import "time"

// Alert represents one monitoring event requiring notification.
type Alert struct {
	ID         string    `json:"id"`
	Host       string    `json:"host"`
	TriggerID  string    `json:"triggerId"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"mensagem"`
	ReceivedAt time.Time `json:"timestamp"`

	// WhatsAppStatus summarizes delivery across all recipients:
	// "pending", "success", "partial" or "error".
	WhatsAppStatus string `json:"whatsappStatus"`
}

// HistoricalSample is a single past measurement from the monitoring system,
// ordered newest first when returned in a sequence.
type HistoricalSample struct {
	Value string `json:"value"`
	Clock int64  `json:"clock"` // unix seconds
}

// Time returns the sample timestamp.
func (h HistoricalSample) Time() time.Time {
	return time.Unix(h.Clock, 0)
}

// DeliveryOutcome records the result of one send attempt to one recipient.
type DeliveryOutcome struct {
	Recipient   string `json:"recipient"`
	Success     bool   `json:"success"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// AuditRecord is the full processed-alert trail kept in the alert log:
// the alert itself plus diagnostics, the AI exchange and delivery outcomes.
type AuditRecord struct {
	Alert      Alert              `json:"alert"`
	History    []HistoricalSample `json:"history,omitempty"`
	Prompt     string             `json:"prompt,omitempty"`
	AIAnalysis string             `json:"aiResponse,omitempty"`
	Recipients []string           `json:"recipients"`
	Outcomes   []DeliveryOutcome  `json:"sendStatus"`
}

// DeliveryStatus collapses a set of outcomes into the aggregate
// whatsappStatus vocabulary exposed by the API.
func DeliveryStatus(outcomes []DeliveryOutcome) string {
	if len(outcomes) == 0 {
		return "pending"
	}
	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	switch succeeded {
	case len(outcomes):
		return "success"
	case 0:
		return "error"
	default:
		return "partial"
	}
}
