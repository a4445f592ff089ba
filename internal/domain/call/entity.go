package call

import "time"

// State is the call notification lifecycle state. The manager holds at most
// one live call; every terminal transition returns to Idle.
type State string

const (
	StateIdle     State = "idle"
	StateRinging  State = "ringing"
	StateAnswered State = "answered"
	StateDeclined State = "declined"
	StateEnded    State = "ended"
)

// Call carries the identifiers of the currently ringing call.
type Call struct {
	ConferenceID   string
	ServerID       string
	ChannelID      string
	ChannelName    string
	ConferenceJWT  string
	NotificationID int
	RingingSince   time.Time
}
