// Package phones exposes the severity-to-recipient directory over HTTP.
package phones

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/alertbridge/internal/api/respond"
	"github.com/good-yellow-bee/alertbridge/internal/directory"
	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// Directory is the recipient-directory surface the handler needs.
type Directory interface {
	All() map[models.Severity][]string
	Add(sev models.Severity, phone string) error
	Remove(sev models.Severity, phone string) error
}

// Handler handles recipient directory endpoints.
type Handler struct {
	directory Directory
}

// NewHandler creates a new phones handler.
func NewHandler(dir Directory) *Handler {
	return &Handler{directory: dir}
}

// AddRequest registers one recipient under a severity bucket.
type AddRequest struct {
	Severity string `json:"severity"`
	Phone    string `json:"phone"`
}

// List returns the full severity-to-recipient mapping.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.directory.All())
}

// Add registers a recipient and returns the updated mapping.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, respond.BadRequest("invalid request body"))
		return
	}

	sev, err := ValidateSeverity(req.Severity)
	if err != nil {
		respond.Err(w, respond.Validation(err.Error()))
		return
	}
	phone, err := ValidatePhone(req.Phone)
	if err != nil {
		respond.Err(w, respond.Validation(err.Error()))
		return
	}

	if err := h.directory.Add(sev, phone); err != nil {
		switch {
		case errors.Is(err, directory.ErrDuplicateRecipient):
			respond.Err(w, respond.Validation(err.Error()))
		case errors.Is(err, directory.ErrUnknownSeverity):
			respond.Err(w, respond.Validation(err.Error()))
		default:
			log.Printf("add phone error: %v", err)
			respond.Err(w, respond.Internal())
		}
		return
	}

	log.Printf("phone added: severity=%s phone=%s", sev, phone)
	respond.Created(w, h.directory.All())
}

// Remove deletes a recipient and returns the updated mapping.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	sev, err := ValidateSeverity(chi.URLParam(r, "severity"))
	if err != nil {
		respond.Err(w, respond.Validation(err.Error()))
		return
	}
	phone := chi.URLParam(r, "phone")
	if phone == "" {
		respond.Err(w, respond.BadRequest("phone required"))
		return
	}

	if err := h.directory.Remove(sev, phone); err != nil {
		switch {
		case errors.Is(err, directory.ErrRecipientNotFound):
			respond.Err(w, respond.NotFound(err.Error()))
		case errors.Is(err, directory.ErrUnknownSeverity):
			respond.Err(w, respond.Validation(err.Error()))
		default:
			log.Printf("remove phone error: %v", err)
			respond.Err(w, respond.Internal())
		}
		return
	}

	log.Printf("phone removed: severity=%s phone=%s", sev, phone)
	respond.OK(w, h.directory.All())
}
