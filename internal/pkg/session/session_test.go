package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	hash, err := HashPairingSecret("pair-me")
	require.NoError(t, err)
	return New(hash, "signing-secret-for-tests", time.Hour)
}

func TestExchangeWithCorrectSecret(t *testing.T) {
	svc := newTestService(t)

	token, expiresAt, err := svc.Exchange("pair-me")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session", claims["type"])
	assert.NotEmpty(t, claims["session_id"])
}

func TestExchangeWithWrongSecret(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Exchange("wrong")
	assert.ErrorIs(t, err, ErrInvalidPairingSecret)
}
