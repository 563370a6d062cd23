package analytics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubBatchBySize(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{BufferSize: 8, MaxBatchEvents: 2, MaxBatchWait: time.Minute}, sink)
	defer func() {
		require.NoError(t, hub.Close(context.Background()))
	}()

	hub.Emit(sampleEvent())
	hub.Emit(sampleEvent())
	require.Eventually(t, func() bool {
		batches := sink.Batches()
		return len(batches) == 1 && len(batches[0]) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHubBatchByTimer(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{BufferSize: 4, MaxBatchEvents: 10, MaxBatchWait: 25 * time.Millisecond}, sink)
	defer func() {
		require.NoError(t, hub.Close(context.Background()))
	}()

	hub.Emit(sampleEvent())
	require.Eventually(t, func() bool {
		return len(sink.Batches()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHubFlushOnClose(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{BufferSize: 4, MaxBatchEvents: 100, MaxBatchWait: time.Minute}, sink)
	hub.Emit(sampleEvent())
	hub.Emit(sampleEvent())
	require.NoError(t, hub.Close(context.Background()))

	var total int
	for _, batch := range sink.Batches() {
		total += len(batch)
	}
	require.Equal(t, 2, total)
	require.True(t, sink.closed.Load())

	hub.Emit(sampleEvent())
	require.NoError(t, hub.Close(context.Background()), "second close is a no-op")
}

func TestHubDropsOnBackpressure(t *testing.T) {
	t.Parallel()

	var drops atomic.Int64
	hub := &Hub{
		cfg:    Config{OnDrop: func() { drops.Add(1) }},
		events: make(chan Event),
		logger: zap.NewNop(),
	}
	start := time.Now()
	hub.Emit(sampleEvent())
	hub.Emit(sampleEvent())
	require.Less(t, time.Since(start), 50*time.Millisecond)
	require.Equal(t, int64(2), drops.Load())
}

func TestHubTrackBuildsEvent(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{MaxBatchEvents: 1}, sink)
	data := map[string]string{"name": "Ada", "email": "ada@example.com", "form": "footerWaitlistForm"}
	hub.Track(context.Background(), "waitlist_signup", data)
	data["name"] = "mutated"
	require.NoError(t, hub.Close(context.Background()))

	batches := sink.Batches()
	require.Len(t, batches, 1)
	evt := batches[0][0]
	require.Equal(t, "waitlist_signup", evt.Name)
	require.Equal(t, "footerWaitlistForm", evt.FormID)
	require.Equal(t, "Ada", evt.Data["name"])
	require.Equal(t, uuid.Version(7), evt.ID.Version())
	require.Equal(t, time.UTC, evt.TS.Location())
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := newStubSink()
	hub := NewHub(Config{MaxBatchEvents: 1}, sink)
	hub.Emit(Event{Name: "no id"})
	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.Batches())
}

func TestHubSinkErrorsDoNotStopDelivery(t *testing.T) {
	t.Parallel()

	failing := newStubSink()
	failing.err = errors.New("boom")
	ok := newStubSink()
	hub := NewHub(Config{MaxBatchEvents: 1}, failing, nil, ok)
	hub.Emit(sampleEvent())
	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, ok.Batches(), 1)
}

func TestNilHubIsInert(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Track(context.Background(), "x", nil)
	hub.Emit(sampleEvent())
	require.NoError(t, hub.Close(context.Background()))
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, sampleEvent().Validate())
	evt := sampleEvent()
	evt.TS = time.Time{}
	require.Error(t, evt.Validate())
	evt = sampleEvent()
	evt.Name = ""
	require.Error(t, evt.Validate())
}

func sampleEvent() Event {
	return Event{ID: uuid.New(), TS: time.Now().UTC(), Name: "waitlist_signup", FormID: "waitlistForm"}
}

type stubSink struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
	closed  atomic.Bool
}

func newStubSink() *stubSink {
	return &stubSink{}
}

func (s *stubSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]Event(nil), batch...))
	return s.err
}

func (s *stubSink) Close(context.Context) error {
	s.closed.Store(true)
	return nil
}

func (s *stubSink) Batches() [][]Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Event(nil), s.batches...)
}
