package response

import (
	"errors"
	"net/http"

	"github.com/chatkit/push-dispatch-go/internal/domain/call"
	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/chatkit/push-dispatch-go/internal/pkg/session"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	switch {
	// Push domain errors
	case errors.Is(err, push.ErrUnknownType):
		BadRequest(w, "Unknown push type", nil)
	case errors.Is(err, push.ErrIncompleteMessage):
		BadRequest(w, "Message payload missing post or channel id", nil)
	case errors.Is(err, push.ErrIncompleteCall):
		BadRequest(w, "Call payload missing conference details", nil)
	case errors.Is(err, push.ErrInvalidSignature):
		Forbidden(w, "Payload signature rejected")
	case errors.Is(err, push.ErrNotInitialized):
		InternalServerError(w, "Dispatcher not initialized")

	// Call lifecycle errors
	case errors.Is(err, call.ErrStaleConference):
		Conflict(w, "No ringing call for that conference")
	case errors.Is(err, call.ErrNoActiveCall):
		NotFound(w, "No active call")

	// Ledger errors
	case errors.Is(err, ledger.ErrEntryNotFound):
		NotFound(w, "No pending notifications for that conversation")

	// Server registry errors
	case errors.Is(err, server.ErrNotFound):
		NotFound(w, "Server not registered")
	case errors.Is(err, server.ErrAmbiguous):
		BadRequest(w, "Multiple servers registered, server id required", nil)
	case errors.Is(err, server.ErrExists):
		Conflict(w, "Server already registered")

	// Session errors
	case errors.Is(err, session.ErrInvalidPairingSecret):
		Unauthorized(w, "Invalid pairing secret")
	case errors.Is(err, session.ErrInvalidSessionToken):
		Unauthorized(w, "Invalid session token")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
