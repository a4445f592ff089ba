package call

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chatkit/push-dispatch-go/internal/domain/call"
	"github.com/chatkit/push-dispatch-go/internal/domain/push"
	"github.com/chatkit/push-dispatch-go/internal/pkg/signal"
)

// AnsweredSignal is the payload emitted on signal.TopicCallAnswered.
type AnsweredSignal struct {
	ServerID      string `json:"server_id"`
	ChannelID     string `json:"channel_id"`
	ConferenceJWT string `json:"conference_jwt"`
}

// EndedSignal is the payload emitted on signal.TopicCallEnded and
// TopicCallDeclined.
type EndedSignal struct {
	ServerID     string `json:"server_id"`
	ConferenceID string `json:"conference_id"`
	State        string `json:"state"`
}

type service struct {
	renderer push.Renderer
	hub      *signal.Hub

	// mu guards current. Transitions compare the conference id first so a
	// stale event is rejected without doing renderer or hub work under the
	// lock longer than necessary.
	mu      sync.Mutex
	current *call.Call
}

// NewCallManager creates the call notification lifecycle manager. The
// process holds exactly one; at most one call notification is ever live.
func NewCallManager(renderer push.Renderer, hub *signal.Hub) call.Manager {
	return &service{
		renderer: renderer,
		hub:      hub,
	}
}

// Ring posts the call alert and starts ringing.
func (s *service) Ring(ctx context.Context, c call.Call) error {
	s.mu.Lock()
	if s.current != nil {
		if s.current.ConferenceID == c.ConferenceID {
			// Idempotent re-delivery from the push channel.
			s.mu.Unlock()
			slog.Debug("Duplicate ring ignored", "conference_id", c.ConferenceID)
			return nil
		}
		// A newer ring supersedes the previous one; calls never stack.
		previous := *s.current
		s.current = &c
		s.mu.Unlock()

		if err := s.renderer.Cancel(previous.NotificationID); err != nil {
			slog.Warn("Failed to cancel superseded call alert", "conference_id", previous.ConferenceID, "error", err)
		}
		return s.postAlert(c)
	}

	s.current = &c
	s.mu.Unlock()

	return s.postAlert(c)
}

func (s *service) postAlert(c call.Call) error {
	content := push.RenderContent{
		Title:        fmt.Sprintf("Call from %s", c.ChannelName),
		ServerID:     c.ServerID,
		ChannelID:    c.ChannelID,
		ConferenceID: c.ConferenceID,
		FullScreen:   true,
		Actions: []push.RenderAction{
			{Label: "Decline", Callback: fmt.Sprintf("/api/v1/calls/%s/decline", c.ConferenceID)},
			{Label: "Accept", Callback: fmt.Sprintf("/api/v1/calls/%s/answer", c.ConferenceID)},
		},
	}
	if err := s.renderer.Post(c.NotificationID, content, false); err != nil {
		return fmt.Errorf("post call alert: %w", err)
	}

	slog.Info("Call ringing", "conference_id", c.ConferenceID, "channel", c.ChannelName)
	return nil
}

// Cancel tears down the ringing call after a remote hang-up.
func (s *service) Cancel(ctx context.Context, conferenceID string) error {
	return s.teardown(conferenceID, signal.TopicCallEnded, call.StateEnded, call.ErrStaleConference)
}

// Joined tears down the ringing call because another device answered.
func (s *service) Joined(ctx context.Context, conferenceID string) error {
	return s.teardown(conferenceID, signal.TopicCallEnded, call.StateAnswered, call.ErrStaleConference)
}

// Decline rejects the ringing call on the user's behalf. Unlike the push
// events, a user action with nothing ringing is ErrNoActiveCall.
func (s *service) Decline(ctx context.Context, conferenceID string) error {
	return s.teardown(conferenceID, signal.TopicCallDeclined, call.StateDeclined, call.ErrNoActiveCall)
}

// teardown removes the alert and emits exactly one signal. idleErr is
// returned when nothing is ringing; a conference mismatch is always stale.
func (s *service) teardown(conferenceID string, topic string, to call.State, idleErr error) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		slog.Debug("Call event with no ringing call", "conference_id", conferenceID, "state", to)
		return idleErr
	}
	if s.current.ConferenceID != conferenceID {
		s.mu.Unlock()
		slog.Debug("Stale call event dropped", "conference_id", conferenceID, "state", to)
		return call.ErrStaleConference
	}
	ended := *s.current
	s.current = nil
	s.mu.Unlock()

	if err := s.renderer.Cancel(ended.NotificationID); err != nil {
		slog.Warn("Failed to cancel call alert", "conference_id", conferenceID, "error", err)
	}

	s.hub.Emit(topic, EndedSignal{
		ServerID:     ended.ServerID,
		ConferenceID: ended.ConferenceID,
		State:        string(to),
	})
	slog.Info("Call torn down", "conference_id", conferenceID, "state", to)
	return nil
}

// Answer reacts to the user accepting the ringing call.
func (s *service) Answer(ctx context.Context, conferenceID string) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return call.ErrNoActiveCall
	}
	if s.current.ConferenceID != conferenceID {
		s.mu.Unlock()
		return call.ErrStaleConference
	}
	answered := *s.current
	s.current = nil
	s.mu.Unlock()

	if err := s.renderer.Cancel(answered.NotificationID); err != nil {
		slog.Warn("Failed to cancel call alert", "conference_id", conferenceID, "error", err)
	}

	s.hub.Emit(signal.TopicCallAnswered, AnsweredSignal{
		ServerID:      answered.ServerID,
		ChannelID:     answered.ChannelID,
		ConferenceJWT: answered.ConferenceJWT,
	})
	slog.Info("Call answered", "conference_id", conferenceID)
	return nil
}

// Current returns a copy of the ringing call, or nil when idle.
func (s *service) Current() *call.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// State implements call.Manager.
func (s *service) State() call.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return call.StateIdle
	}
	return call.StateRinging
}

// Reset forces Idle without signals. Cold start only.
func (s *service) Reset() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
