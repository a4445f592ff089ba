package ledger

import "context"

// Service defines the notification ledger interface. All mutations for a
// given key are serialized; see the implementation for the locking rule.
type Service interface {
	// RecordPending counts one more undisplayed notification for the key.
	// summarize is true whenever the resulting pending count is two or more,
	// meaning the caller should post or refresh the rolled-up summary.
	RecordPending(ctx context.Context, key Key, notificationID int) (count int, summarize bool, err error)

	// Clear removes the entry for the key. It returns the removed entry so
	// the caller can cancel the backing platform notifications, or nil when
	// the key was already absent (clearing twice is a no-op).
	Clear(ctx context.Context, key Key) (*Entry, error)

	// ResetAll discards entries whose backing platform notification no
	// longer exists. live reports whether a notification id is still in the
	// tray.
	ResetAll(ctx context.Context, live func(notificationID int) bool) error
}
