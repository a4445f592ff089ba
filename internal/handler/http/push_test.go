package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkit/push-dispatch-go/internal/domain/call"
	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signature"
	"github.com/chatkit/push-dispatch-go/internal/pkg/tray"
	callsvc "github.com/chatkit/push-dispatch-go/internal/service/call"
)

type fakeDispatcher struct {
	lastEvent  *push.Event
	lastOpened *ledger.Key
	outcome    *push.DispatchOutcome
	err        error
}

func (d *fakeDispatcher) Init(ctx context.Context) error { return nil }

func (d *fakeDispatcher) OnReceived(ctx context.Context, ev push.Event) (*push.DispatchOutcome, error) {
	d.lastEvent = &ev
	if d.err != nil {
		return nil, d.err
	}
	if d.outcome != nil {
		return d.outcome, nil
	}
	return &push.DispatchOutcome{Outcome: push.OutcomePosted, PendingCount: 1}, nil
}

func (d *fakeDispatcher) OnOpened(ctx context.Context, key ledger.Key) error {
	d.lastOpened = &key
	return d.err
}

func newPushHandler(d push.Dispatcher) (PushHandler, *tray.Tray, *signal.Hub) {
	renderer := tray.New()
	hub := signal.NewHub()
	calls := callsvc.NewCallManager(renderer, hub)
	return NewPushHandler(d, calls, signature.NewVerifier("")), renderer, hub
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestReceiveDispatchesMessage(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	rec := postJSON(t, h.Receive, "/api/v1/push", push.WebhookPayload{
		Type:      "message",
		AckID:     "ack1",
		PostID:    "post1",
		ChannelID: "ch1",
		IDLoaded:  "true",
		Message:   "hello",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, d.lastEvent)
	assert.Equal(t, push.TypeMessage, d.lastEvent.Type)
	assert.True(t, d.lastEvent.IDLoaded)
	assert.NotZero(t, d.lastEvent.NotificationID)
}

func TestReceiveAssignsDistinctEvenIDs(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	payload := push.WebhookPayload{Type: "message", PostID: "p", ChannelID: "c"}
	postJSON(t, h.Receive, "/api/v1/push", payload)
	first := d.lastEvent.NotificationID
	postJSON(t, h.Receive, "/api/v1/push", payload)
	second := d.lastEvent.NotificationID

	// Summary ids ride one above the individual; the step of two keeps
	// them from colliding.
	assert.Equal(t, first+2, second)
	assert.NotEqual(t, ledger.SummaryID(first), second)
}

func TestReceiveRejectsUnknownType(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	rec := postJSON(t, h.Receive, "/api/v1/push", push.WebhookPayload{Type: "telemetry"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, d.lastEvent)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	d := &fakeDispatcher{}
	renderer := tray.New()
	hub := signal.NewHub()
	calls := callsvc.NewCallManager(renderer, hub)
	h := NewPushHandler(d, calls, signature.NewVerifier("provider-secret"))

	rec := postJSON(t, h.Receive, "/api/v1/push", push.WebhookPayload{
		Type:      "message",
		AckID:     "ack1",
		PostID:    "p",
		ChannelID: "c",
		Signature: "not-a-jwt",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, d.lastEvent)
}

func TestReceiveAcceptsLegacyNoSignature(t *testing.T) {
	d := &fakeDispatcher{}
	renderer := tray.New()
	hub := signal.NewHub()
	calls := callsvc.NewCallManager(renderer, hub)
	h := NewPushHandler(d, calls, signature.NewVerifier("provider-secret"))

	rec := postJSON(t, h.Receive, "/api/v1/push", push.WebhookPayload{
		Type:      "message",
		PostID:    "p",
		ChannelID: "c",
		Signature: "NO_SIGNATURE",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, d.lastEvent)
}

func TestOpenedClearsConversation(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	rec := postJSON(t, h.Opened, "/api/v1/notifications/opened", push.OpenedRequest{
		ServerID:  "srv1",
		ChannelID: "ch1",
		RootID:    "root1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, d.lastOpened)
	assert.Equal(t, "root1", d.lastOpened.ChannelKey())
}

func TestOpenedRequiresIdentifiers(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	rec := postJSON(t, h.Opened, "/api/v1/notifications/opened", push.OpenedRequest{ServerID: "srv1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, d.lastOpened)
}

func callRinging(conferenceID string, notificationID int) call.Call {
	return call.Call{
		ConferenceID:   conferenceID,
		ServerID:       "srv1",
		ChannelID:      "ch1",
		ChannelName:    "Standup",
		ConferenceJWT:  "jwt",
		NotificationID: notificationID,
	}
}

func drainSignals(ch <-chan signal.Event) []signal.Event {
	var events []signal.Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func callRoute(h PushHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/calls/{conference_id}/answer", h.AnswerCall)
	r.Post("/calls/{conference_id}/decline", h.DeclineCall)
	return r
}

func TestAnswerCallRinging(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, hub := newPushHandler(d)

	// Ring through the handler's own manager so state is shared.
	hImpl := h.(*pushHandlerImpl)
	require.NoError(t, hImpl.calls.Ring(context.Background(), callRinging("confA", 10)))

	answered, cleanup := hub.Subscribe(signal.TopicCallAnswered)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/calls/confA/answer", nil)
	rec := httptest.NewRecorder()
	callRoute(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, drainSignals(answered), 1)
}

func TestAnswerCallStaleConflict(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	hImpl := h.(*pushHandlerImpl)
	require.NoError(t, hImpl.calls.Ring(context.Background(), callRinging("confA", 10)))

	req := httptest.NewRequest(http.MethodPost, "/calls/confZ/answer", nil)
	rec := httptest.NewRecorder()
	callRoute(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAnswerCallWithNothingRinging(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, _ := newPushHandler(d)

	req := httptest.NewRequest(http.MethodPost, "/calls/confZ/answer", nil)
	rec := httptest.NewRecorder()
	callRoute(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclineCallRinging(t *testing.T) {
	d := &fakeDispatcher{}
	h, _, hub := newPushHandler(d)

	hImpl := h.(*pushHandlerImpl)
	require.NoError(t, hImpl.calls.Ring(context.Background(), callRinging("confA", 10)))

	declined, cleanup := hub.Subscribe(signal.TopicCallDeclined)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/calls/confA/decline", nil)
	rec := httptest.NewRecorder()
	callRoute(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, drainSignals(declined), 1)
}
