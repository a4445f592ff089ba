package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
)

// LedgerJobs reconciles the durable notification ledger against the tray.
// The tray is authoritative: an entry whose notification is gone (swiped
// away, cleared by the OS, missed opened callback) must not keep counting
// toward summaries.
type LedgerJobs struct {
	ledgerSvc ledger.Service
	renderer  push.Renderer
}

func NewLedgerJobs(ledgerSvc ledger.Service, renderer push.Renderer) *LedgerJobs {
	return &LedgerJobs{
		ledgerSvc: ledgerSvc,
		renderer:  renderer,
	}
}

func (j *LedgerJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("ledger_sweep", 15*time.Minute, j.SweepOrphanedEntries)
}

// SweepOrphanedEntries drops ledger entries whose backing notification is no
// longer in the tray.
func (j *LedgerJobs) SweepOrphanedEntries(ctx context.Context) error {
	live := make(map[int]struct{})
	for _, id := range j.renderer.ActiveIDs() {
		live[id] = struct{}{}
	}

	err := j.ledgerSvc.ResetAll(ctx, func(notificationID int) bool {
		_, ok := live[notificationID]
		return ok
	})
	if err != nil {
		return err
	}

	slog.Debug("Cron: ledger sweep completed", "live_notifications", len(live))
	return nil
}
