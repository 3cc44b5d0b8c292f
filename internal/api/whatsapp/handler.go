// Package whatsapp exposes messaging-gateway session state and direct sends.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/alertbridge/internal/api/respond"
	"github.com/good-yellow-bee/alertbridge/internal/gateway"
)

// Gateway is the messaging-gateway surface the handler needs.
type Gateway interface {
	ConnectionStatus(ctx context.Context) (gateway.SessionState, error)
	RequestPairingCode(ctx context.Context) (string, error)
	SendText(ctx context.Context, recipient, text string) error
}

// Handler handles messaging-gateway endpoints.
type Handler struct {
	gateway     Gateway
	development bool
}

// NewHandler creates a new gateway handler.
func NewHandler(gw Gateway, development bool) *Handler {
	return &Handler{gateway: gw, development: development}
}

// StatusResponse reports the session connection status.
type StatusResponse struct {
	Status string `json:"status"`
}

// Status returns the current gateway session status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	state, err := h.gateway.ConnectionStatus(r.Context())
	if err != nil {
		log.Printf("gateway status error: %v", err)
		h.gatewayError(w, err)
		return
	}
	respond.OK(w, StatusResponse{Status: state.ConnectionStatus()})
}

// QRResponse carries a pairing QR code, or the connected status when no
// pairing is needed.
type QRResponse struct {
	QRCode string `json:"qrcode,omitempty"`
	Status string `json:"status,omitempty"`
}

// QR requests a pairing QR code from the gateway.
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	code, err := h.gateway.RequestPairingCode(r.Context())
	if err != nil {
		if errors.Is(err, gateway.ErrAlreadyConnected) {
			respond.OK(w, QRResponse{Status: "CONNECTED"})
			return
		}
		log.Printf("gateway qr error: %v", err)
		h.gatewayError(w, err)
		return
	}
	respond.OK(w, QRResponse{QRCode: code})
}

// SendRequest is a direct-send request, bypassing the alert pipeline.
type SendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendResponse reports a completed direct send.
type SendResponse struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
}

// Send delivers one message to one recipient.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, respond.BadRequest("invalid request body"))
		return
	}

	if strings.TrimSpace(req.Phone) == "" {
		respond.Err(w, respond.Validation("phone is required"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.Err(w, respond.Validation("message is required"))
		return
	}

	if err := h.gateway.SendText(r.Context(), req.Phone, req.Message); err != nil {
		log.Printf("direct send error: phone=%s: %v", req.Phone, err)
		h.gatewayError(w, err)
		return
	}

	log.Printf("direct send: phone=%s", req.Phone)
	respond.OK(w, SendResponse{Phone: req.Phone, Success: true})
}

func (h *Handler) gatewayError(w http.ResponseWriter, err error) {
	respond.Err(w, respond.Gateway(err.Error(), h.development))
}
