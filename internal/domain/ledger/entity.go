package ledger

import "time"

// Key identifies the conversation a notification belongs to. Thread replies
// group under the thread root instead of the channel.
type Key struct {
	ServerID  string
	ChannelID string
	RootID    string
}

// ChannelKey returns the column value used for persistence and per-key
// serialization: the thread root when present, else the channel.
func (k Key) ChannelKey() string {
	if k.RootID != "" {
		return k.RootID
	}
	return k.ChannelID
}

// String renders the key for lock striping and logging.
func (k Key) String() string {
	return k.ServerID + "/" + k.ChannelKey()
}

// Entry is one durable ledger row: how many notifications are currently
// pending display for a key and which platform notification was posted last.
type Entry struct {
	ServerID           string
	ChannelKey         string
	PendingCount       int
	LastNotificationID int
	UpdatedAt          time.Time
}

// SummaryID returns the platform id used for the rolled-up summary
// notification of this entry's key. The summary always rides one above the
// individual notification it was created with.
func SummaryID(notificationID int) int {
	return notificationID + 1
}
