package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signature"
	"github.com/chatkit/push-dispatch-go/internal/pkg/tray"
	callsvc "github.com/chatkit/push-dispatch-go/internal/service/call"
)

type stubServerRepo struct{}

func (stubServerRepo) GetByID(ctx context.Context, id string) (*server.Server, error) {
	return nil, server.ErrNotFound
}
func (stubServerRepo) List(ctx context.Context) ([]*server.Server, error) { return nil, nil }
func (stubServerRepo) Create(ctx context.Context, s *server.Server) error { return nil }
func (stubServerRepo) Delete(ctx context.Context, id string) error        { return nil }

func newTestRouter(t *testing.T) (http.Handler, session.Service) {
	t.Helper()
	hash, err := session.HashPairingSecret("pair-me")
	require.NoError(t, err)
	sessions := session.New(hash, "signing-secret", time.Hour)

	renderer := tray.New()
	hub := signal.NewHub()
	d := &fakeDispatcher{}
	pushHandler := NewPushHandler(d, callsvc.NewCallManager(renderer, hub), signature.NewVerifier(""))

	router := NewRouter(sessions, pushHandler, NewSessionHandler(sessions), NewServerHandler(stubServerRepo{}), NewEventsHandler(hub))
	return router, sessions
}

func openSession(t *testing.T, router http.Handler, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"pairing_secret": secret})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandshake(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := openSession(t, router, "pair-me")
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Data struct {
			Token     string `json:"token"`
			ExpiresAt int64  `json:"expires_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.NotEmpty(t, parsed.Data.Token)
	assert.Greater(t, parsed.Data.ExpiresAt, time.Now().Unix())
}

func TestSessionHandshakeWrongSecret(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := openSession(t, router, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardedRouteRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/servers/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardedRouteAcceptsSessionToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := openSession(t, router, "pair-me")
	require.Equal(t, http.StatusOK, rec.Code)
	var parsed struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/servers/", nil)
	req.Header.Set("Authorization", "Bearer "+parsed.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookBypassesSessionGuard(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"type": "message", "post_id": "p", "channel_id": "c"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
