package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
	"github.com/wekeepgrowing/billsync/pkg/messaging"
	"go.uber.org/zap"
)

// memoryBus is an in-process stand-in for Redis pub/sub.
type memoryBus struct {
	mu      sync.Mutex
	subs    map[string][]chan messaging.Message
	ready   chan struct{}
	failing bool
}

func newMemoryBus() *memoryBus {
	return &memoryBus{subs: map[string][]chan messaging.Message{}, ready: make(chan struct{}, 1)}
}

func (b *memoryBus) Publish(_ context.Context, channel string, message interface{}) error {
	if b.failing {
		return errors.New("redis down")
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- messaging.Message{Channel: channel, Payload: payload, Time: time.Now()}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, channel string) (<-chan messaging.Message, error) {
	ch := make(chan messaging.Message, 16)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()
	b.ready <- struct{}{}
	return ch, nil
}

func (b *memoryBus) Close() error { return nil }

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.Send(entity.Event{Name: entity.EventStart, SyncID: "r1"}))
	require.NoError(t, w.Send(entity.Event{Name: entity.EventStarting, SyncID: "r1", Supplier: "enel"}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"event: start\ndata: {\"event\":\"start\",\"sync_id\":\"r1\"}\n\n"+
			"event: starting\ndata: {\"event\":\"starting\",\"sync_id\":\"r1\",\"supplier\":\"enel\"}\n\n",
		rec.Body.String())
}

func TestRelayFollow(t *testing.T) {
	bus := newMemoryBus()
	relay := NewRedisRelay(bus, "billsync:progress", zap.NewNop())
	assert.Equal(t, "billsync:progress:u1:r1", relay.RunChannel("u1", "r1"))

	rec := httptest.NewRecorder()
	w, err := NewSSEWriter(rec)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- relay.Follow(context.Background(), "u1", "r1", w) }()
	<-bus.ready

	sink := relay.Sink("u1", "r1")
	require.NoError(t, sink.Send(entity.Event{Name: entity.EventStart, SyncID: "r1"}))
	require.NoError(t, relay.UserSink("u1").Send(entity.Event{Name: entity.EventStarting, SyncID: "r1", Supplier: "enel"}))
	require.NoError(t, relay.UserSink("u1").Send(entity.Event{Name: entity.EventStarting, SyncID: "r2", Supplier: "elsewhere"}))
	require.NoError(t, relay.Sink("u2", "r1").Send(entity.Event{Name: entity.EventStart, SyncID: "other"}))
	require.NoError(t, sink.Send(entity.Event{Name: entity.EventComplete, SyncID: "r1"}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("follow did not stop at complete")
	}
	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: "))
	assert.NotContains(t, body, "other")
	assert.NotContains(t, body, "elsewhere")
}

func TestRelaySinkSwallowsErrors(t *testing.T) {
	bus := newMemoryBus()
	bus.failing = true
	sink := NewRedisRelay(bus, "c", zap.NewNop()).Sink("u", "r")
	assert.NoError(t, sink.Send(entity.Event{Name: entity.EventStart}))
}

type recordSender struct {
	events []entity.Event
	err    error
}

func (r *recordSender) Send(e entity.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestTee(t *testing.T) {
	primary := &recordSender{err: errors.New("client gone")}
	mirror := &recordSender{}
	tee := NewTee(primary, mirror)

	err := tee.Send(entity.Event{Name: entity.EventStart})
	assert.EqualError(t, err, "client gone")
	assert.Len(t, primary.events, 1)
	assert.Len(t, mirror.events, 1)
}
