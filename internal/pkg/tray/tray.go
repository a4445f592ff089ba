// Package tray models the platform notification surface. It keeps the set of
// live notifications with their extras so the engine can reconcile durable
// state against what the tray actually shows; the platform binding mirrors
// every Post/Cancel onto the real notification system.
package tray

import (
	"sync"

	"github.com/chatkit/push-dispatch-go/internal/domain/push"
)

// Notification is one live tray entry.
type Notification struct {
	ID      int
	Content push.RenderContent
	Summary bool
}

// Tray implements push.Renderer.
type Tray struct {
	mu     sync.RWMutex
	active map[int]Notification
}

// New creates an empty tray.
func New() *Tray {
	return &Tray{active: make(map[int]Notification)}
}

// Post shows or replaces the notification with the given id.
func (t *Tray) Post(id int, content push.RenderContent, summary bool) error {
	t.mu.Lock()
	t.active[id] = Notification{ID: id, Content: content, Summary: summary}
	t.mu.Unlock()
	return nil
}

// Cancel removes the notification with the given id. Cancelling an absent id
// is a no-op.
func (t *Tray) Cancel(id int) error {
	t.mu.Lock()
	delete(t.active, id)
	t.mu.Unlock()
	return nil
}

// ActiveIDs lists the ids of live notifications.
func (t *Tray) ActiveIDs() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	return ids
}

// Get returns the live notification for id.
func (t *Tray) Get(id int) (Notification, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.active[id]
	return n, ok
}

// CancelByConference removes the notification carrying the conference extra.
func (t *Tray) CancelByConference(conferenceID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, n := range t.active {
		if n.Content.ConferenceID == conferenceID {
			delete(t.active, id)
			return id, true
		}
	}
	return 0, false
}

// CancelByKey removes every notification posted for the conversation,
// summaries included.
func (t *Tray) CancelByKey(serverID, channelKey string) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cancelled []int
	for id, n := range t.active {
		if n.Content.ServerID == serverID && n.Content.ChannelID == channelKey {
			delete(t.active, id)
			cancelled = append(cancelled, id)
		}
	}
	return cancelled
}
