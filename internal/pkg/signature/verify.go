// Package signature verifies the provider signature attached to push
// payloads. The provider signs a compact JWT binding the acknowledgment id so
// a replayed or forged payload cannot impersonate a fresh notification.
package signature

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier checks push payload signatures.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the shared provider secret. An empty
// secret disables verification: Verify always succeeds, matching deployments
// where the provider does not sign payloads.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether a provider secret is configured.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify validates the signature token against the payload's ack id. The
// special value "NO_SIGNATURE" marks payloads from servers predating payload
// signing and is accepted as-is.
func (v *Verifier) Verify(signatureToken, ackID string) error {
	if !v.Enabled() || signatureToken == "NO_SIGNATURE" {
		return nil
	}
	if signatureToken == "" {
		return fmt.Errorf("payload carries no signature")
	}

	token, err := jwt.Parse(
		[]byte(signatureToken),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return fmt.Errorf("signature rejected: %w", err)
	}

	if ackID != "" {
		claim, ok := token.Get("ack_id")
		if !ok || claim != ackID {
			return fmt.Errorf("signature ack id mismatch")
		}
	}
	return nil
}
