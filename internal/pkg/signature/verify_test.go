package signature

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "provider-signing-secret"

func signedToken(t *testing.T, secret string, claims map[string]interface{}) string {
	t.Helper()
	builder := jwt.NewBuilder().Expiration(time.Now().Add(time.Minute))
	for k, v := range claims {
		builder = builder.Claim(k, v)
	}
	token, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secret)))
	require.NoError(t, err)
	return string(signed)
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewVerifier(testSecret)
	tok := signedToken(t, testSecret, map[string]interface{}{"ack_id": "ack-1"})
	assert.NoError(t, v.Verify(tok, "ack-1"))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	v := NewVerifier(testSecret)
	tok := signedToken(t, "some-other-secret", map[string]interface{}{"ack_id": "ack-1"})
	assert.Error(t, v.Verify(tok, "ack-1"))
}

func TestVerifyRejectsAckMismatch(t *testing.T) {
	v := NewVerifier(testSecret)
	tok := signedToken(t, testSecret, map[string]interface{}{"ack_id": "ack-1"})
	assert.Error(t, v.Verify(tok, "ack-2"))
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	v := NewVerifier(testSecret)
	assert.Error(t, v.Verify("", "ack-1"))
}

func TestVerifyAcceptsLegacyMarker(t *testing.T) {
	v := NewVerifier(testSecret)
	assert.NoError(t, v.Verify("NO_SIGNATURE", "ack-1"))
}

func TestVerifyDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("")
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Verify("", "ack-1"))
	assert.NoError(t, v.Verify("garbage", ""))
}
