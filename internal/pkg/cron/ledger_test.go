package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/pkg/tray"
	ledgerService "github.com/chatkit/push-dispatch-go/internal/service/ledger"
)

type sweepRepo struct {
	entries map[string]*ledger.Entry
}

func newSweepRepo() *sweepRepo {
	return &sweepRepo{entries: make(map[string]*ledger.Entry)}
}

func (r *sweepRepo) IncrementPending(ctx context.Context, key ledger.Key, notificationID int) (*ledger.Entry, error) {
	e := r.entries[key.String()]
	if e == nil {
		e = &ledger.Entry{ServerID: key.ServerID, ChannelKey: key.ChannelKey()}
		r.entries[key.String()] = e
	}
	e.PendingCount++
	e.LastNotificationID = notificationID
	return e, nil
}

func (r *sweepRepo) Get(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	e, ok := r.entries[key.String()]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	return e, nil
}

func (r *sweepRepo) Delete(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	e, ok := r.entries[key.String()]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	delete(r.entries, key.String())
	return e, nil
}

func (r *sweepRepo) List(ctx context.Context) ([]*ledger.Entry, error) {
	out := make([]*ledger.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, nil
}

func (r *sweepRepo) DeleteAll(ctx context.Context) error {
	r.entries = make(map[string]*ledger.Entry)
	return nil
}

func TestSweepDropsOrphanedEntries(t *testing.T) {
	repo := newSweepRepo()
	svc := ledgerService.NewLedgerService(repo)
	renderer := tray.New()

	keyLive := ledger.Key{ServerID: "srv1", ChannelID: "ch-live"}
	keyGone := ledger.Key{ServerID: "srv1", ChannelID: "ch-gone"}
	_, _, err := svc.RecordPending(context.Background(), keyLive, 10)
	require.NoError(t, err)
	_, _, err = svc.RecordPending(context.Background(), keyGone, 20)
	require.NoError(t, err)

	// Only the live key's notification is still in the tray; the other was
	// cancelled out-of-band.
	require.NoError(t, renderer.Post(10, push.RenderContent{ServerID: "srv1", ChannelID: "ch-live"}, false))

	jobs := NewLedgerJobs(svc, renderer)
	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler)
	scheduler.RunOnce(context.Background())

	_, err = repo.Get(context.Background(), keyLive)
	assert.NoError(t, err)
	_, err = repo.Get(context.Background(), keyGone)
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestSweepWithEmptyLedger(t *testing.T) {
	repo := newSweepRepo()
	jobs := NewLedgerJobs(ledgerService.NewLedgerService(repo), tray.New())

	assert.NoError(t, jobs.SweepOrphanedEntries(context.Background()))
}
