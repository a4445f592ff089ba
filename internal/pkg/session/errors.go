package session

import "errors"

// Session errors
var (
	ErrInvalidPairingSecret = errors.New("invalid pairing secret")
	ErrInvalidSessionToken  = errors.New("invalid session token")
)
