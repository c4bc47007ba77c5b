package eventsink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorclaw/bridge/pkg/logger"
)

func newTestSink(t *testing.T) *EventSink {
	t.Helper()
	base, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: "stdout", Component: "test"})
	require.NoError(t, err)
	sink := NewEventSink(logger.NewSecurityLogger(base))
	require.NoError(t, sink.Start())
	t.Cleanup(sink.Stop)
	return sink
}

func TestSubscribeAndPublish(t *testing.T) {
	sink := newTestSink(t)

	sub := sink.Subscribe(EventFilter{})
	require.NotEmpty(t, sub.ID)

	err := sink.Publish(NewSessionOpenedEvent("sess-1", "conn-1", "ssh"))
	require.NoError(t, err)

	select {
	case wrapper := <-sub.EventChannel:
		evt, ok := wrapper.Event.(*SessionOpenedEvent)
		require.True(t, ok)
		assert.Equal(t, "sess-1", evt.SessionID)
	case <-time.After(time.Second):
		t.Fatal("expected to receive published event")
	}
}

func TestPublishNilEventFails(t *testing.T) {
	sink := newTestSink(t)
	err := sink.Publish(nil)
	require.Error(t, err)
}

func TestSessionFilterExcludesOtherSessions(t *testing.T) {
	sink := newTestSink(t)
	sub := sink.Subscribe(EventFilter{SessionID: "sess-1"})

	require.NoError(t, sink.Publish(NewSessionOpenedEvent("sess-2", "conn-1", "ssh")))

	select {
	case <-sub.EventChannel:
		t.Fatal("subscriber should not receive events for a different session")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, sink.Publish(NewSessionOpenedEvent("sess-1", "conn-1", "ssh")))
	select {
	case wrapper := <-sub.EventChannel:
		evt := wrapper.Event.(*SessionOpenedEvent)
		assert.Equal(t, "sess-1", evt.SessionID)
	case <-time.After(time.Second):
		t.Fatal("expected matching session event")
	}
}

func TestKindFilter(t *testing.T) {
	sink := newTestSink(t)
	sub := sink.Subscribe(EventFilter{Kinds: []string{EventTypeVaultLocked}})

	require.NoError(t, sink.Publish(NewVaultStateEvent(EventTypeVaultUnlocked)))
	select {
	case <-sub.EventChannel:
		t.Fatal("subscriber should not receive events outside its kind filter")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, sink.Publish(NewVaultStateEvent(EventTypeVaultLocked)))
	select {
	case wrapper := <-sub.EventChannel:
		assert.Equal(t, EventTypeVaultLocked, wrapper.Event.EventType())
	case <-time.After(time.Second):
		t.Fatal("expected matching kind event")
	}
}

func TestUnsubscribe(t *testing.T) {
	sink := newTestSink(t)
	sub := sink.Subscribe(EventFilter{})

	require.NoError(t, sink.Unsubscribe(sub.ID))
	assert.Error(t, sink.Unsubscribe(sub.ID))

	_, closedOpen := <-sub.EventChannel
	assert.False(t, closedOpen)
}

func TestUnsubscribeUnknownID(t *testing.T) {
	sink := newTestSink(t)
	err := sink.Unsubscribe("sub-does-not-exist")
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	sink := newTestSink(t)
	sink.Subscribe(EventFilter{})
	sink.Subscribe(EventFilter{})

	stats := sink.Stats()
	assert.Equal(t, 2, stats["active_subscribers"])
}
