package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
)

type service struct {
	repo ledger.Repository

	// keyLocks serializes mutations per conversation key. Burst delivery of
	// several messages to one channel and an opened callback racing a new
	// message both land on the same mutex, keeping pending_count
	// linearizable per key.
	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewLedgerService creates the notification ledger service.
func NewLedgerService(repo ledger.Repository) ledger.Service {
	return &service{
		repo:     repo,
		keyLocks: make(map[string]*sync.Mutex),
	}
}

func (s *service) lockKey(key ledger.Key) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[key.String()]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[key.String()] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RecordPending counts one more undisplayed notification for the key.
func (s *service) RecordPending(ctx context.Context, key ledger.Key, notificationID int) (int, bool, error) {
	unlock := s.lockKey(key)
	defer unlock()

	entry, err := s.repo.IncrementPending(ctx, key, notificationID)
	if err != nil {
		return 0, false, fmt.Errorf("record pending for %s: %w", key, err)
	}

	// A second pending notification for the same conversation means the
	// platform should group them under one rolled-up summary.
	return entry.PendingCount, entry.PendingCount >= 2, nil
}

// Clear removes the entry for the key. Returns nil when already absent.
func (s *service) Clear(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	unlock := s.lockKey(key)
	defer unlock()

	entry, err := s.repo.Delete(ctx, key)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("clear %s: %w", key, err)
	}

	return entry, nil
}

// ResetAll discards entries whose backing notification is no longer live.
// A nil predicate means nothing survived, so the whole ledger is dropped in
// one statement.
func (s *service) ResetAll(ctx context.Context, live func(notificationID int) bool) error {
	if live == nil {
		if err := s.repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
		slog.Info("Ledger reset dropped all entries")
		return nil
	}

	entries, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if live(entry.LastNotificationID) {
			continue
		}
		key := ledger.Key{ServerID: entry.ServerID, ChannelID: entry.ChannelKey}
		if _, err := s.Clear(ctx, key); err != nil {
			return err
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Ledger reset dropped stale entries", "removed", removed, "kept", len(entries)-removed)
	}
	return nil
}
