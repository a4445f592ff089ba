package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/chatkit/push-dispatch-go/internal/handler/http/response"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
)

// SessionHandler runs the pairing handshake for the host UI runtime.
type SessionHandler interface {
	Open(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	sessions session.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions session.Service) SessionHandler {
	return &sessionHandlerImpl{sessions: sessions}
}

type openSessionRequest struct {
	PairingSecret string `json:"pairing_secret"`
}

type openSessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Open exchanges the pairing secret for a session token.
func (h *sessionHandlerImpl) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Open session decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.PairingSecret == "" {
		response.BadRequest(w, "pairing_secret is required", nil)
		return
	}

	token, expiresAt, err := h.sessions.Exchange(req.PairingSecret)
	if err != nil {
		slog.Warn("Pairing handshake rejected", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Session opened")
	response.Success(w, openSessionResponse{Token: token, ExpiresAt: expiresAt})
}
