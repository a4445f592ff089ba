package ledger

import "context"

// Repository defines the ledger persistence interface
type Repository interface {
	// IncrementPending creates the entry at count 1 or increments it, and
	// records the latest platform notification id. Returns the entry after
	// the increment.
	IncrementPending(ctx context.Context, key Key, notificationID int) (*Entry, error)

	// Get returns the entry for the key, or ErrEntryNotFound.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Delete removes the entry, returning the deleted row or ErrEntryNotFound.
	Delete(ctx context.Context, key Key) (*Entry, error)

	// List returns all entries for the device.
	List(ctx context.Context) ([]*Entry, error)

	// DeleteAll removes every entry. Used by the reset when no notification
	// survived.
	DeleteAll(ctx context.Context) error
}
