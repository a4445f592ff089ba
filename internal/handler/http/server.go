package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/chatkit/push-dispatch-go/internal/handler/http/response"
)

// ServerHandler manages the registry of origin chat servers.
type ServerHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Register(w http.ResponseWriter, r *http.Request)
	Remove(w http.ResponseWriter, r *http.Request)
}

type serverHandlerImpl struct {
	servers server.Repository
}

// NewServerHandler creates a new server registry handler
func NewServerHandler(servers server.Repository) ServerHandler {
	return &serverHandlerImpl{servers: servers}
}

type registerServerRequest struct {
	ID          string `json:"id,omitempty"`
	BaseURL     string `json:"base_url"`
	DisplayName string `json:"display_name,omitempty"`
}

type serverResponse struct {
	ID          string `json:"id"`
	BaseURL     string `json:"base_url"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toServerResponse(s *server.Server) serverResponse {
	return serverResponse{
		ID:          s.ID,
		BaseURL:     s.BaseURL,
		DisplayName: s.DisplayName,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

// List implements ServerHandler.
func (h *serverHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.servers.List(r.Context())
	if err != nil {
		slog.Error("List servers error", "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]serverResponse, 0, len(servers))
	for _, s := range servers {
		out = append(out, toServerResponse(s))
	}
	response.Success(w, out)
}

// Register implements ServerHandler.
func (h *serverHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req registerServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Register server decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	parsed, err := url.Parse(req.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		response.BadRequest(w, "base_url must be an absolute URL", nil)
		return
	}

	s := &server.Server{
		ID:          req.ID,
		BaseURL:     req.BaseURL,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now(),
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	if err := h.servers.Create(r.Context(), s); err != nil {
		slog.Error("Register server error", "base_url", req.BaseURL, "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Server registered", "server_id", s.ID, "base_url", s.BaseURL)
	response.Created(w, "Server registered", toServerResponse(s))
}

// Remove implements ServerHandler.
func (h *serverHandlerImpl) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "server_id")

	if err := h.servers.Delete(r.Context(), id); err != nil {
		slog.Error("Remove server error", "server_id", id, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Server removed", nil)
}
