package events

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(NewEventLog(setupTestDB(t)), nil)
	defer bus.Close()

	ch := bus.Subscribe("test.created", 10)

	e := &testEvent{BaseEvent: NewBaseEvent("test.created", "test", "1"), Message: "hello"}
	require.NoError(t, bus.Publish(context.Background(), e))

	select {
	case received := <-ch:
		assert.Equal(t, "test.created", received.EventType())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_SubscribeFiltersByType(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe("wanted", 10)
	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("other", "test", "1")}))
	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("wanted", "test", "2")}))

	select {
	case e := <-ch:
		assert.Equal(t, "2", e.EntityID())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	assert.Empty(t, ch)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("test.first", "test", "1")}))
	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("test.second", "test", "2")}))

	assert.Len(t, ch, 2)
}

func TestBus_FullSubscriberDrops(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(1)
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("test", "test", strconv.Itoa(i))}))
	}

	assert.Len(t, ch, 1)
	assert.Equal(t, "0", (<-ch).EntityID())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe("test.event", 10)
	bus.Unsubscribe(ch)

	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("test.event", "test", "1")}))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestBus_Close(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.SubscribeAll(1)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing and subscribing after close are harmless.
	require.NoError(t, bus.Publish(context.Background(), &testEvent{BaseEvent: NewBaseEvent("x", "test", "1")}))
	_, ok = <-bus.SubscribeAll(1)
	assert.False(t, ok)
}

func TestBus_PersistsEvents(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)
	bus := NewBus(log, nil)
	defer bus.Close()

	require.NoError(t, bus.Publish(context.Background(), &SessionCreated{
		BaseEvent: NewSessionEvent(EventSessionCreated, "sess-1"),
		Locator:   "magnet:?xt=urn:btih:EXAMPLE",
	}))

	raw, err := log.ForEntity(EntitySession, "sess-1")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, EventSessionCreated, raw[0].EventType)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := &testEvent{BaseEvent: NewBaseEvent("test.concurrent", "test", strconv.Itoa(n)), Message: "concurrent"}
			_ = bus.Publish(context.Background(), e)
		}(i)
	}
	wg.Wait()

	assert.Len(t, ch, 10)
}
