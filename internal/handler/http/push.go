package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chatkit/push-dispatch-go/internal/domain/call"
	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/handler/http/response"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signature"
)

// PushHandler defines the push ingest and interaction handler interface
type PushHandler interface {
	// Receive ingests one provider webhook payload.
	Receive(w http.ResponseWriter, r *http.Request)
	// Opened reacts to the user opening a conversation's notification.
	Opened(w http.ResponseWriter, r *http.Request)
	// AnswerCall accepts the ringing call.
	AnswerCall(w http.ResponseWriter, r *http.Request)
	// DeclineCall rejects the ringing call.
	DeclineCall(w http.ResponseWriter, r *http.Request)
}

type pushHandlerImpl struct {
	dispatcher push.Dispatcher
	calls      call.Manager
	verifier   *signature.Verifier

	// idSeq steps by two so the rolled-up summary id, always the
	// individual id plus one, never collides with a later notification.
	idSeq atomic.Int64
}

// NewPushHandler creates a new push handler
func NewPushHandler(dispatcher push.Dispatcher, calls call.Manager, verifier *signature.Verifier) PushHandler {
	h := &pushHandlerImpl{
		dispatcher: dispatcher,
		calls:      calls,
		verifier:   verifier,
	}
	h.idSeq.Store(time.Now().Unix() << 1)
	return h
}

func (h *pushHandlerImpl) nextNotificationID() int {
	return int(h.idSeq.Add(2))
}

// Receive ingests one provider webhook payload end to end.
func (h *pushHandlerImpl) Receive(w http.ResponseWriter, r *http.Request) {
	var payload push.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Error("Receive decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := h.verifier.Verify(payload.Signature, payload.AckID); err != nil {
		slog.Warn("Payload signature rejected", "ack_id", payload.AckID, "error", err)
		response.HandleError(w, push.ErrInvalidSignature)
		return
	}

	eventType, err := push.ParseType(payload.Type)
	if err != nil {
		slog.Error("Receive unknown type", "type", payload.Type)
		response.HandleError(w, err)
		return
	}

	ev := push.Event{
		Type:           eventType,
		AckID:          payload.AckID,
		PostID:         payload.PostID,
		ChannelID:      payload.ChannelID,
		ChannelName:    payload.ChannelName,
		RootID:         payload.RootID,
		ServerID:       payload.ServerID,
		ConferenceID:   payload.ConferenceID,
		ConferenceJWT:  payload.ConferenceJWT,
		IDLoaded:       payload.IDLoaded == "true",
		Message:        payload.Message,
		SenderName:     payload.SenderName,
		NotificationID: h.nextNotificationID(),
	}

	outcome, err := h.dispatcher.OnReceived(r.Context(), ev)
	if err != nil {
		slog.Error("Receive dispatch error", "type", ev.Type, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, push.DispatchResponse{
		Outcome:      outcome.Outcome,
		PendingCount: outcome.PendingCount,
		AckAttempted: outcome.AckAttempted,
		Forwarded:    outcome.Forwarded,
	})
}

// Opened implements PushHandler.
func (h *pushHandlerImpl) Opened(w http.ResponseWriter, r *http.Request) {
	var req push.OpenedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Opened decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if req.ServerID == "" || req.ChannelID == "" {
		response.BadRequest(w, "server_id and channel_id are required", nil)
		return
	}

	key := ledger.Key{ServerID: req.ServerID, ChannelID: req.ChannelID, RootID: req.RootID}
	if err := h.dispatcher.OnOpened(r.Context(), key); err != nil {
		slog.Error("Opened service error", "key", key.String(), "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Conversation cleared", nil)
}

// AnswerCall implements PushHandler.
func (h *pushHandlerImpl) AnswerCall(w http.ResponseWriter, r *http.Request) {
	conferenceID := chi.URLParam(r, "conference_id")

	if err := h.calls.Answer(r.Context(), conferenceID); err != nil {
		slog.Warn("AnswerCall service error", "conference_id", conferenceID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Call answered", nil)
}

// DeclineCall implements PushHandler.
func (h *pushHandlerImpl) DeclineCall(w http.ResponseWriter, r *http.Request) {
	conferenceID := chi.URLParam(r, "conference_id")

	if err := h.calls.Decline(r.Context(), conferenceID); err != nil {
		slog.Warn("DeclineCall service error", "conference_id", conferenceID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Call declined", nil)
}
