package push

import "errors"

// Push domain errors
var (
	ErrUnknownType       = errors.New("unknown push notification type")
	ErrIncompleteMessage = errors.New("message notification missing post or channel id")
	ErrIncompleteCall    = errors.New("call notification missing conference fields")
	ErrInvalidSignature  = errors.New("push payload signature could not be verified")
	ErrNotInitialized    = errors.New("dispatcher used before initialization")
)
