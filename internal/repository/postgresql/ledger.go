package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ledgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new notification ledger repository
func NewLedgerRepository(db *database.DB) ledger.Repository {
	return &ledgerRepository{db: db}
}

// IncrementPending upserts the entry and bumps pending_count atomically, so
// concurrent increments on the same key never lose updates.
func (r *ledgerRepository) IncrementPending(ctx context.Context, key ledger.Key, notificationID int) (*ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO notification_ledger (server_id, channel_key, pending_count, last_notification_id, updated_at)
		VALUES ($1, $2, 1, $3, NOW())
		ON CONFLICT (server_id, channel_key) DO UPDATE
		SET pending_count = notification_ledger.pending_count + 1,
		    last_notification_id = EXCLUDED.last_notification_id,
		    updated_at = NOW()
		RETURNING server_id, channel_key, pending_count, last_notification_id, updated_at
	`

	entry := &ledger.Entry{}
	err := q.QueryRow(ctx, query, key.ServerID, key.ChannelKey(), notificationID).Scan(
		&entry.ServerID,
		&entry.ChannelKey,
		&entry.PendingCount,
		&entry.LastNotificationID,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to increment ledger entry: %w", err)
	}

	return entry, nil
}

// Get retrieves the entry for the key
func (r *ledgerRepository) Get(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT server_id, channel_key, pending_count, last_notification_id, updated_at
		FROM notification_ledger
		WHERE server_id = $1 AND channel_key = $2
	`

	entry := &ledger.Entry{}
	err := q.QueryRow(ctx, query, key.ServerID, key.ChannelKey()).Scan(
		&entry.ServerID,
		&entry.ChannelKey,
		&entry.PendingCount,
		&entry.LastNotificationID,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// Delete removes the entry and returns the deleted row
func (r *ledgerRepository) Delete(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM notification_ledger
		WHERE server_id = $1 AND channel_key = $2
		RETURNING server_id, channel_key, pending_count, last_notification_id, updated_at
	`

	entry := &ledger.Entry{}
	err := q.QueryRow(ctx, query, key.ServerID, key.ChannelKey()).Scan(
		&entry.ServerID,
		&entry.ChannelKey,
		&entry.PendingCount,
		&entry.LastNotificationID,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to delete ledger entry: %w", err)
	}

	return entry, nil
}

// List returns all ledger entries
func (r *ledgerRepository) List(ctx context.Context) ([]*ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT server_id, channel_key, pending_count, last_notification_id, updated_at
		FROM notification_ledger
		ORDER BY updated_at
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		entry := &ledger.Entry{}
		if err := rows.Scan(
			&entry.ServerID,
			&entry.ChannelKey,
			&entry.PendingCount,
			&entry.LastNotificationID,
			&entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	return entries, nil
}

// DeleteAll removes every ledger entry
func (r *ledgerRepository) DeleteAll(ctx context.Context) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM notification_ledger`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	return nil
}
