// Package eventsink manages real-time event distribution to RPC clients.
// It lets a client receive session, host-key, and vault state changes as
// they happen instead of polling the RPC server for them.
package eventsink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/armorclaw/bridge/pkg/logger"
)

// EventWrapper wraps an event for delivery, attaching receipt bookkeeping
type EventWrapper struct {
	Event    SinkEvent `json:"event"`
	Received time.Time `json:"received"`
	Sequence int64     `json:"sequence"`
}

// EventFilter narrows a subscription to events the caller cares about.
// All zero-value fields match everything.
type EventFilter struct {
	SessionID string   // only events naming this session (empty = all sessions)
	Kinds     []string // only these event types (empty = all types)
}

// Subscriber represents a client subscribed to receive events
type Subscriber struct {
	ID            string
	Filter        EventFilter
	EventChannel  chan *EventWrapper
	SubscribeTime time.Time
	LastActivity  time.Time
	closed        bool
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// EventSink manages event subscriptions and fan-out
type EventSink struct {
	subscribers map[string]*Subscriber
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	securityLog *logger.SecurityLogger
}

// NewEventSink creates a new event sink
func NewEventSink(securityLog *logger.SecurityLogger) *EventSink {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventSink{
		subscribers: make(map[string]*Subscriber),
		ctx:         ctx,
		cancel:      cancel,
		securityLog: securityLog,
	}
}

// Start begins background maintenance of the sink (inactive subscriber cleanup)
func (s *EventSink) Start() error {
	s.securityLog.LogSecurityEvent("eventsink_started")
	go s.cleanupInactiveSubscribers()
	return nil
}

// Stop shuts down the sink and closes every subscriber channel
func (s *EventSink) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		sub.cancel()
		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.EventChannel)
		}
		sub.mu.Unlock()
	}

	s.securityLog.LogSecurityEvent("eventsink_stopped")
}

// Publish delivers an event to every subscriber whose filter matches it.
// A subscriber whose channel is full has the event dropped, not blocked on.
func (s *EventSink) Publish(event SinkEvent) error {
	if event == nil {
		return ErrNilEvent()
	}

	data, err := event.ToJSON()
	if err != nil {
		return ErrSerializeFailed(event.EventType(), err)
	}
	_ = data // validated serializable; the wrapper carries the typed event, not the bytes

	wrapper := &EventWrapper{
		Event:    event,
		Received: time.Now(),
		Sequence: time.Now().UnixNano(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered, dropped := 0, 0
	for id, sub := range s.subscribers {
		if !s.matchesFilter(event, sub.Filter) {
			continue
		}
		select {
		case sub.EventChannel <- wrapper:
			delivered++
			sub.mu.Lock()
			sub.LastActivity = time.Now()
			sub.mu.Unlock()
		default:
			dropped++
			s.securityLog.LogSecurityEvent("event_dropped",
				slog.String("subscriber_id", id),
				slog.String("event_type", event.EventType()))
		}
	}

	s.securityLog.LogSecurityEvent("event_published",
		slog.String("event_type", event.EventType()),
		slog.Int("subscribers_notified", delivered),
		slog.Int("subscribers_dropped", dropped))

	return nil
}

// Subscribe creates a new subscription for receiving events
func (s *EventSink) Subscribe(filter EventFilter) *Subscriber {
	subID := fmt.Sprintf("sub-%d", time.Now().UnixNano())

	ctx, cancel := context.WithCancel(s.ctx)
	sub := &Subscriber{
		ID:            subID,
		Filter:        filter,
		EventChannel:  make(chan *EventWrapper, 100),
		SubscribeTime: time.Now(),
		LastActivity:  time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}

	s.mu.Lock()
	s.subscribers[subID] = sub
	s.mu.Unlock()

	s.securityLog.LogSecurityEvent("subscriber_created",
		slog.String("subscriber_id", subID),
		slog.String("session_filter", filter.SessionID))

	return sub
}

// Unsubscribe removes a subscription
func (s *EventSink) Unsubscribe(subscriberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscribers[subscriberID]
	if !exists {
		return ErrSubscriberNotFound(subscriberID)
	}

	sub.cancel()
	sub.mu.Lock()
	if !sub.closed {
		sub.closed = true
		close(sub.EventChannel)
	}
	sub.mu.Unlock()

	delete(s.subscribers, subscriberID)

	s.securityLog.LogSecurityEvent("subscriber_removed", slog.String("subscriber_id", subscriberID))
	return nil
}

// matchesFilter checks if an event matches a subscriber's filter
func (s *EventSink) matchesFilter(event SinkEvent, filter EventFilter) bool {
	if len(filter.Kinds) > 0 {
		match := false
		for _, k := range filter.Kinds {
			if event.EventType() == k {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	if filter.SessionID == "" {
		return true
	}

	switch e := event.(type) {
	case *SessionOpenedEvent:
		return e.SessionID == filter.SessionID
	case *SessionClosedEvent:
		return e.SessionID == filter.SessionID
	case *TerminalExitEvent:
		return e.SessionID == filter.SessionID
	case *SessionErrorEvent:
		return e.SessionID == filter.SessionID
	case *TerminalDataEvent:
		return e.SessionID == filter.SessionID
	case *ConnectionDeadEvent:
		return e.SessionID == filter.SessionID
	default:
		// events with no session association pass session-scoped filters through
		return true
	}
}

// cleanupInactiveSubscribers removes subscribers that stopped draining their channel
func (s *EventSink) cleanupInactiveSubscribers() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for id, sub := range s.subscribers {
				sub.mu.RLock()
				inactive := now.Sub(sub.LastActivity) > 30*time.Minute
				sub.mu.RUnlock()
				if !inactive {
					continue
				}

				s.securityLog.LogSecurityEvent("subscriber_removed_inactive",
					slog.String("subscriber_id", id),
					slog.Duration("inactive_time", now.Sub(sub.LastActivity)))

				sub.cancel()
				sub.mu.Lock()
				if !sub.closed {
					sub.closed = true
					close(sub.EventChannel)
				}
				sub.mu.Unlock()
				delete(s.subscribers, id)
			}
			s.mu.Unlock()
		}
	}
}

// Stats returns a snapshot of sink activity
func (s *EventSink) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"active_subscribers": len(s.subscribers),
	}
}
