package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chatkit/push-dispatch-go/internal/handler/http/response"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
)

// EventsHandler streams dispatch signals to the host UI runtime over SSE.
// An open stream is what marks the UI as attached; the dispatcher checks the
// hub's subscriber count to decide whether to forward events and skip
// fetching.
type EventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventsHandlerImpl struct {
	hub *signal.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *signal.Hub) EventsHandler {
	return &eventsHandlerImpl{hub: hub}
}

// Stream subscribes the client to dispatch signals. The optional topic query
// parameter narrows the stream; absent, every topic is delivered.
func (h *eventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	topic := r.URL.Query().Get("topic")
	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	slog.Info("Event stream opened", "topic", topic, "remote", r.RemoteAddr)

	// Heartbeat keeps intermediaries from closing an idle stream.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("Event stream closed", "topic", topic)
			return

		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()

		case ev := <-events:
			data, err := json.Marshal(ev.Data)
			if err != nil {
				slog.Error("Failed to encode signal", "topic", ev.Topic, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data)
			flusher.Flush()
		}
	}
}
