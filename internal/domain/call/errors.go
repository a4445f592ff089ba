package call

import "errors"

// Call domain errors
var (
	// ErrStaleConference marks a call event referencing a conference that is
	// not the one currently ringing. Deliberate no-op, not a failure.
	ErrStaleConference = errors.New("stale call event for unknown conference")
	ErrNoActiveCall    = errors.New("no active call")
)
