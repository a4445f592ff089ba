// Package dispatcher wires classification, acknowledgment, the notification
// ledger and the call lifecycle into the end-to-end handling of one push
// event.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chatkit/push-dispatch-go/internal/domain/call"
	"github.com/chatkit/push-dispatch-go/internal/domain/ledger"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/domain/server"
	"github.com/chatkit/push-dispatch-go/internal/pkg/receipt"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
)

// AckDeliverer sends a delivery acknowledgment back to the origin server.
type AckDeliverer interface {
	Deliver(ctx context.Context, req receipt.Request) (*receipt.Response, error)
}

type service struct {
	servers  server.Resolver
	ledger   ledger.Service
	calls    call.Manager
	renderer push.Renderer
	fetcher  push.DataFetcher
	acks     AckDeliverer
	hub      *signal.Hub

	initOnce    sync.Once
	initialized atomic.Bool
}

// NewDispatcher creates the push dispatch engine.
func NewDispatcher(
	servers server.Resolver,
	ledgerSvc ledger.Service,
	calls call.Manager,
	renderer push.Renderer,
	fetcher push.DataFetcher,
	acks AckDeliverer,
	hub *signal.Hub,
) push.Dispatcher {
	return &service{
		servers:  servers,
		ledger:   ledgerSvc,
		calls:    calls,
		renderer: renderer,
		fetcher:  fetcher,
		acks:     acks,
		hub:      hub,
	}
}

// Init reconciles durable state against the tray after a cold start. Ledger
// entries whose backing notification is gone are dropped, and any ringing
// call is forgotten without signals.
func (s *service) Init(ctx context.Context) error {
	var err error
	s.initOnce.Do(func() {
		live := make(map[int]struct{})
		for _, id := range s.renderer.ActiveIDs() {
			live[id] = struct{}{}
		}
		err = s.ledger.ResetAll(ctx, func(notificationID int) bool {
			_, ok := live[notificationID]
			return ok
		})
		if err != nil {
			err = fmt.Errorf("failed to reconcile notification ledger: %w", err)
			return
		}

		s.calls.Reset()
		s.initialized.Store(true)
		slog.Info("Dispatcher initialized", "live_notifications", len(live))
	})
	return err
}

func (s *service) OnReceived(ctx context.Context, ev push.Event) (*push.DispatchOutcome, error) {
	if !s.initialized.Load() {
		return nil, push.ErrNotInitialized
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	s.resolveServer(ctx, &ev)

	outcome := &push.DispatchOutcome{Outcome: push.OutcomeSkipped}

	// The acknowledgment races the rest of the pipeline. Message handling
	// waits for the result so merged fields reach the final render; call and
	// clear events do not block on it. Once initiated the delivery is never
	// cancelled: it runs detached from the request context, bounded only by
	// the client's own budget.
	var ackCh chan *receipt.Response
	if ev.AckID != "" && ev.ServerURL != "" {
		outcome.AckAttempted = true
		ackCh = make(chan *receipt.Response, 1)
		go s.deliverAck(context.WithoutCancel(ctx), ev, ackCh)
	}

	switch ev.Type {
	case push.TypeMessage:
		return s.handleMessage(ctx, ev, ackCh, outcome)
	case push.TypeSession:
		return s.handleSession(ctx, ev, ackCh, outcome)
	case push.TypeClear:
		return s.handleClear(ctx, ev, outcome)
	case push.TypeCallRing:
		return s.handleCallRing(ctx, ev, outcome)
	case push.TypeCallCancel:
		return s.handleCallTeardown(ctx, ev, outcome, s.calls.Cancel)
	case push.TypeCallJoined:
		return s.handleCallTeardown(ctx, ev, outcome, s.calls.Joined)
	}
	return nil, push.ErrUnknownType
}

// resolveServer fills in the event's server identity and base URL. Events
// that cannot be attributed keep an empty ServerURL, which suppresses the
// acknowledgment and the data fetch but not the call lifecycle.
func (s *service) resolveServer(ctx context.Context, ev *push.Event) {
	srv, err := s.servers.Resolve(ctx, ev.ServerID)
	if err != nil {
		slog.Warn("Could not resolve origin server", "server_id", ev.ServerID, "type", ev.Type, "error", err)
		return
	}
	ev.ServerID = srv.ID
	ev.ServerURL = srv.BaseURL
}

func (s *service) deliverAck(ctx context.Context, ev push.Event, out chan<- *receipt.Response) {
	resp, err := s.acks.Deliver(ctx, receipt.Request{
		AckID:      ev.AckID,
		ServerURL:  ev.ServerURL,
		PostID:     ev.PostID,
		Type:       string(ev.Type),
		IsIDLoaded: ev.IDLoaded,
	})
	if err != nil {
		slog.Warn("Acknowledgment failed", "ack_id", ev.AckID, "error", err)
		out <- nil
		return
	}
	out <- resp
}

func (s *service) handleMessage(ctx context.Context, ev push.Event, ackCh chan *receipt.Response, outcome *push.DispatchOutcome) (*push.DispatchOutcome, error) {
	uiActive := s.hub.TotalSubscribers() > 0

	if !ev.IDLoaded && ev.ServerURL != "" && !uiActive {
		outcome.FetchAttempted = true
		fields, err := s.fetcher.FetchAndStore(ctx, ev, uiActive)
		if err != nil {
			slog.Warn("Could not materialize post content", "post_id", ev.PostID, "error", err)
		}
		ev.Merge(fields)
	}

	if ackCh != nil {
		if resp := <-ackCh; resp != nil {
			outcome.AckSucceeded = true
			// Supplemental fields apply only to payloads that already carry
			// their content; otherwise the fetched post is authoritative.
			if ev.IDLoaded {
				ev.Merge(resp.Data)
				if ev.ServerURL == "" && resp.ServerURL != "" {
					ev.ServerURL = resp.ServerURL
				}
			}
		}
	}

	if uiActive {
		s.hub.Emit(signal.TopicNotificationReceived, ev)
		outcome.Forwarded = true
	}

	key := ledger.Key{ServerID: ev.ServerID, ChannelID: ev.ChannelID, RootID: ev.RootID}
	count, summarize, err := s.ledger.RecordPending(ctx, key, ev.NotificationID)
	if err != nil {
		// Losing the ledger must not lose the notification; shown
		// individually, never rolled up.
		slog.Error("Ledger write failed, showing without summary", "key", key.String(), "error", err)
		count, summarize = 1, false
	}
	outcome.PendingCount = count

	if err := s.renderer.Post(ev.NotificationID, s.messageContent(ev), false); err != nil {
		return nil, fmt.Errorf("failed to post notification: %w", err)
	}
	outcome.Outcome = push.OutcomePosted

	if summarize {
		if err := s.renderer.Post(ledger.SummaryID(ev.NotificationID), s.summaryContent(ev, count), true); err != nil {
			return nil, fmt.Errorf("failed to post summary notification: %w", err)
		}
		outcome.Outcome = push.OutcomeSummarized
	}

	slog.Info("Notification dispatched",
		"key", key.String(), "notification_id", ev.NotificationID,
		"pending", count, "summarized", summarize)
	return outcome, nil
}

// handleSession posts session notices individually; they belong to no
// conversation and never participate in summary grouping.
func (s *service) handleSession(ctx context.Context, ev push.Event, ackCh chan *receipt.Response, outcome *push.DispatchOutcome) (*push.DispatchOutcome, error) {
	if ackCh != nil {
		if resp := <-ackCh; resp != nil {
			outcome.AckSucceeded = true
			if ev.IDLoaded {
				ev.Merge(resp.Data)
			}
		}
	}

	content := push.RenderContent{
		Title:    ev.ChannelName,
		Body:     ev.Message,
		ServerID: ev.ServerID,
	}
	if content.Title == "" {
		content.Title = "Session"
	}
	if err := s.renderer.Post(ev.NotificationID, content, false); err != nil {
		return nil, fmt.Errorf("failed to post session notice: %w", err)
	}
	outcome.Outcome = push.OutcomePosted
	return outcome, nil
}

func (s *service) handleClear(ctx context.Context, ev push.Event, outcome *push.DispatchOutcome) (*push.DispatchOutcome, error) {
	key := ledger.Key{ServerID: ev.ServerID, ChannelID: ev.ChannelID, RootID: ev.RootID}
	if _, err := s.ledger.Clear(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to clear ledger entry: %w", err)
	}

	cancelled := s.renderer.CancelByKey(key.ServerID, key.ChannelKey())
	outcome.Outcome = push.OutcomeCleared

	slog.Info("Conversation cleared", "key", key.String(), "cancelled", len(cancelled))
	return outcome, nil
}

func (s *service) handleCallRing(ctx context.Context, ev push.Event, outcome *push.DispatchOutcome) (*push.DispatchOutcome, error) {
	err := s.calls.Ring(ctx, call.Call{
		ConferenceID:   ev.ConferenceID,
		ServerID:       ev.ServerID,
		ChannelID:      ev.ChannelID,
		ChannelName:    ev.ChannelName,
		ConferenceJWT:  ev.ConferenceJWT,
		NotificationID: ev.NotificationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ring: %w", err)
	}
	outcome.Outcome = push.OutcomeCallRinging
	return outcome, nil
}

func (s *service) handleCallTeardown(ctx context.Context, ev push.Event, outcome *push.DispatchOutcome, teardown func(context.Context, string) error) (*push.DispatchOutcome, error) {
	err := teardown(ctx, ev.ConferenceID)
	if errors.Is(err, call.ErrStaleConference) {
		outcome.Outcome = push.OutcomeStale
		return outcome, nil
	}
	if err != nil {
		return nil, err
	}
	outcome.Outcome = push.OutcomeCallDismissed
	return outcome, nil
}

func (s *service) messageContent(ev push.Event) push.RenderContent {
	title := ev.ChannelName
	if title == "" {
		title = ev.SenderName
	}
	if title == "" {
		title = ev.Data["channel_name"]
	}
	body := ev.Message
	if body == "" {
		body = ev.Data["message"]
	}
	return push.RenderContent{
		Title:     title,
		Body:      body,
		ServerID:  ev.ServerID,
		ChannelID: keyChannel(ev),
	}
}

func (s *service) summaryContent(ev push.Event, count int) push.RenderContent {
	return push.RenderContent{
		Title:     ev.ChannelName,
		Body:      fmt.Sprintf("%d new messages", count),
		ServerID:  ev.ServerID,
		ChannelID: keyChannel(ev),
	}
}

// keyChannel mirrors ledger.Key.ChannelKey so the tray extras and the ledger
// agree on the grouping value.
func keyChannel(ev push.Event) string {
	if ev.RootID != "" {
		return ev.RootID
	}
	return ev.ChannelID
}

// OnOpened clears the conversation's ledger entry and cancels its
// notifications after the user taps one of them.
func (s *service) OnOpened(ctx context.Context, key ledger.Key) error {
	if !s.initialized.Load() {
		return push.ErrNotInitialized
	}

	if _, err := s.ledger.Clear(ctx, key); err != nil {
		return fmt.Errorf("failed to clear ledger entry: %w", err)
	}
	s.renderer.CancelByKey(key.ServerID, key.ChannelKey())

	s.hub.Emit(signal.TopicNotificationOpened, key)
	slog.Info("Notification opened", "key", key.String())
	return nil
}
