package call

import "context"

// Manager drives the lifecycle of the single active call notification.
// Transitions referencing a conference id other than the ringing one are
// dropped as stale (ErrStaleConference), with no state change.
type Manager interface {
	// Ring posts the call alert and moves Idle → Ringing. Re-delivery for
	// the conference already ringing is a no-op; a different conference
	// replaces the current ring.
	Ring(ctx context.Context, c Call) error

	// Cancel tears down the ringing call (remote hung up before answer).
	Cancel(ctx context.Context, conferenceID string) error

	// Joined tears down the ringing call because another device answered.
	// Same effect as Cancel, kept separate for logging.
	Joined(ctx context.Context, conferenceID string) error

	// Answer reacts to the user accepting the call.
	Answer(ctx context.Context, conferenceID string) error

	// Decline reacts to the user rejecting the call.
	Decline(ctx context.Context, conferenceID string) error

	// Current returns a copy of the ringing call, or nil when idle.
	Current() *Call

	// State reports the lifecycle state. Terminal transitions return to
	// Idle immediately, so observable states are Idle and Ringing.
	State() State

	// Reset forces the manager back to Idle without emitting signals. Used
	// at cold start.
	Reset()
}
