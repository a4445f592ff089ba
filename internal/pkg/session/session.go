// Package session authenticates the host UI runtime against the dispatch
// daemon. The app proves possession of the pairing secret once and receives a
// short-lived JWT accepted on all guarded routes.
package session

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Service mints and verifies session tokens.
type Service interface {
	// Exchange validates the pairing secret and returns a session token.
	Exchange(pairingSecret string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type service struct {
	pairingHash []byte // bcrypt hash of the pairing secret
	expiration  time.Duration
	tokenAuth   *jwtauth.JWTAuth
}

// New creates a session service. pairingHash is the bcrypt hash of the
// pairing secret; signingSecret signs the session JWTs.
func New(pairingHash string, signingSecret string, expiration time.Duration) Service {
	return &service{
		pairingHash: []byte(pairingHash),
		expiration:  expiration,
		tokenAuth:   jwtauth.New("HS256", []byte(signingSecret), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// HashPairingSecret produces the bcrypt hash stored in configuration.
func HashPairingSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pairing secret: %w", err)
	}
	return string(hash), nil
}

func (s *service) Exchange(pairingSecret string) (string, int64, error) {
	if err := bcrypt.CompareHashAndPassword(s.pairingHash, []byte(pairingSecret)); err != nil {
		return "", 0, ErrInvalidPairingSecret
	}

	expiresAt := time.Now().Add(s.expiration).Unix()
	claims := map[string]interface{}{
		"session_id": uuid.New().String(),
		"type":       "session",
		"exp":        expiresAt,
		"iat":        time.Now().Unix(),
	}

	_, token, err := s.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode session token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *service) JWTAuth() *jwtauth.JWTAuth {
	return s.tokenAuth
}
