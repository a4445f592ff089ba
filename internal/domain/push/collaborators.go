package push

import "context"

// RenderContent is what the platform renderer needs to draw a notification.
type RenderContent struct {
	Title        string
	Body         string
	ServerID     string
	ChannelID    string
	ConferenceID string // set only on call alerts, used for targeted dismissal
	FullScreen   bool   // full-screen-capable call alert
	Actions      []RenderAction
}

// RenderAction is a tappable action attached to a notification.
type RenderAction struct {
	Label    string
	Callback string // relative API path invoked when the user taps the action
}

// Renderer is the platform notification surface. Post with summary true posts
// the rolled-up group notification for an already-posted individual one.
type Renderer interface {
	Post(id int, content RenderContent, summary bool) error
	Cancel(id int) error
	// ActiveIDs lists notifications currently alive in the tray.
	ActiveIDs() []int
	// CancelByConference removes the notification carrying the conference
	// extra, returning its id and whether one was found.
	CancelByConference(conferenceID string) (int, bool)
	// CancelByKey removes every notification posted for the conversation,
	// summaries included, and returns the cancelled ids.
	CancelByKey(serverID, channelKey string) []int
}

// DataFetcher materializes post content for a notification when the payload
// does not already carry it. uiActive suppresses the fetch to avoid racing a
// live in-app sync.
type DataFetcher interface {
	FetchAndStore(ctx context.Context, ev Event, uiActive bool) (map[string]string, error)
}
