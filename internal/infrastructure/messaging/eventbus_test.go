package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

const sessionID = "6ba7b810-9dad-41d1-80b4-00c04fd430c8"

func TestInMemoryEventBus_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})

	var typed, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent(sessionID, 4, 5, 1200)))
	require.NoError(t, bus.Publish(shared.NewKitResetEvent(sessionID, 2)))

	assert.Equal(t, []shared.EventType{shared.EventLevelUp}, typed)
	assert.Equal(t, []shared.EventType{shared.EventLevelUp, shared.EventKitReset}, all)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

func TestInMemoryEventBus_HandlerFailures(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})

	called := false
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("nope") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		called = true
		return nil
	}))

	// Ошибки обработчиков не доходят до издателя.
	require.NoError(t, bus.Publish(shared.NewKitResetEvent(sessionID, 0)))
	assert.True(t, called)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_ExecuteRecoversPanic(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})

	err := bus.execute(shared.NewKitResetEvent(sessionID, 0), func(shared.Event) error { panic("boom") })
	assert.ErrorIs(t, err, ErrHandlerPanic)
}

func TestInMemoryEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var handled atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewXPGainedEvent(sessionID, "Priya", "7A", 10, 990+10*i, 0)))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(10), handled.Load())
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewKitResetEvent(sessionID, 0)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Error(t, bus.Subscribe(shared.EventKitReset, nil))
	assert.Error(t, bus.Publish(nil))
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

type fakeRedis struct {
	mu        sync.Mutex
	published [][]byte
	messages  chan RedisMessage
	closed    bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{messages: make(chan RedisMessage, 16)}
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message []byte) error {
	f.mu.Lock()
	f.published = append(f.published, message)
	f.mu.Unlock()
	// Redis доставляет сообщение и самому издателю.
	f.messages <- RedisMessage{Channel: channel, Payload: string(message)}
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	return f.messages, nil
}

func (f *fakeRedis) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestRedisEventBus_PublishAndReceive(t *testing.T) {
	client := newFakeRedis()
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: client, InstanceID: "hub-a"})
	require.NoError(t, err)

	received := make(chan shared.Event, 4)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		received <- e
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(sessionID, "Priya", "7A", 220, 1200, 1)))

	local := <-received
	assert.Equal(t, shared.EventXPGained, local.EventType())

	client.mu.Lock()
	require.Len(t, client.published, 1)
	var env eventEnvelope
	require.NoError(t, json.Unmarshal(client.published[0], &env))
	client.mu.Unlock()
	assert.Equal(t, "hub-a", env.InstanceID)
	assert.Equal(t, sessionID, env.AggregateID)

	// Событие другого экземпляра доходит до локальных обработчиков.
	env.InstanceID = "hub-b"
	data, err := json.Marshal(env)
	require.NoError(t, err)
	client.messages <- RedisMessage{Channel: DefaultChannelName, Payload: string(data)}

	select {
	case remote := <-received:
		assert.Equal(t, shared.EventXPGained, remote.EventType())
		assert.Equal(t, 1200.0, remote.Payload()["new_total"])
	case <-time.After(2 * time.Second):
		t.Fatal("remote event was not delivered")
	}

	// Собственное эхо не обрабатывается повторно.
	select {
	case extra := <-received:
		t.Fatalf("unexpected event %s", extra.EventType())
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, bus.Close())
	assert.True(t, client.closed)
	assert.ErrorIs(t, bus.Publish(shared.NewKitResetEvent(sessionID, 0)), ErrEventBusClosed)
}

func TestRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}
