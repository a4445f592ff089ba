package push

// Type classifies an inbound push event. The push provider delivers it as a
// string field; parsing it into the closed enum happens once at the ingest
// boundary so unknown values cannot fall through a dispatch switch silently.
type Type string

const (
	TypeMessage    Type = "message"
	TypeSession    Type = "session"
	TypeClear      Type = "clear"
	TypeCallRing   Type = "call_ring"
	TypeCallCancel Type = "cancel_call"
	TypeCallJoined Type = "joined_call"
)

// ParseType maps a raw payload type string to a Type.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeMessage, TypeSession, TypeClear, TypeCallRing, TypeCallCancel, TypeCallJoined:
		return Type(raw), nil
	}
	return "", ErrUnknownType
}

// IsCall reports whether the type belongs to the call lifecycle.
func (t Type) IsCall() bool {
	return t == TypeCallRing || t == TypeCallCancel || t == TypeCallJoined
}

// Event is a single push payload as delivered by the provider. Events are
// immutable once parsed; ack responses are merged into a working copy.
type Event struct {
	Type           Type
	AckID          string // present iff the origin server expects an acknowledgment
	PostID         string
	ChannelID      string
	ChannelName    string
	RootID         string // thread root, groups thread replies under their own ledger key
	ServerID       string // empty means "infer from single registered server"
	ConferenceID   string
	ConferenceJWT  string
	IDLoaded       bool // payload already carries fully-loaded content
	NotificationID int  // platform identifier assigned at ingest
	Message        string
	SenderName     string

	// ServerURL is resolved, not delivered; filled in by the dispatcher.
	ServerURL string

	// Data holds supplemental fields merged from the ack response or the
	// data-fetch collaborator. First writer wins: locally known values are
	// never overwritten.
	Data map[string]string
}

// Validate checks the payload invariants that classification relies on.
func (e *Event) Validate() error {
	if e.Type == TypeMessage && (e.PostID == "" || e.ChannelID == "") {
		return ErrIncompleteMessage
	}
	if e.Type == TypeCallRing && (e.ConferenceID == "" || e.ConferenceJWT == "") {
		return ErrIncompleteCall
	}
	if (e.Type == TypeCallCancel || e.Type == TypeCallJoined) && e.ConferenceID == "" {
		return ErrIncompleteCall
	}
	return nil
}

// Merge applies supplemental fields first-writer-wins: a key already present
// in e.Data is kept, and resolved top-level fields are never replaced.
func (e *Event) Merge(fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	if e.Data == nil {
		e.Data = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if _, ok := e.Data[k]; ok {
			continue
		}
		if k == "server_url" && e.ServerURL != "" {
			continue
		}
		e.Data[k] = v
	}
}

// Outcome reports what the dispatcher did with an event.
type Outcome string

const (
	OutcomePosted        Outcome = "posted"         // individual notification shown
	OutcomeSummarized    Outcome = "summarized"     // individual + summary shown
	OutcomeCallRinging   Outcome = "call_ringing"   // call alert posted
	OutcomeCallDismissed Outcome = "call_dismissed" // call alert torn down
	OutcomeCleared       Outcome = "cleared"        // ledger key cleared
	OutcomeStale         Outcome = "stale"          // stale call event, dropped
	OutcomeSkipped       Outcome = "skipped"        // nothing to render (no server, UI active, ...)
)

// DispatchOutcome is the result of processing one event end to end.
type DispatchOutcome struct {
	Outcome        Outcome
	PendingCount   int
	AckAttempted   bool
	AckSucceeded   bool
	FetchAttempted bool
	Forwarded      bool // event forwarded to the UI runtime
}
