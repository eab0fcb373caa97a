package round_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/predbot/internal/application/round"
	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingHandler records epochs and blocks each round until released.
type blockingHandler struct {
	mu       sync.Mutex
	handled  []domain.Epoch
	inFlight int
	maxSeen  int
	started  chan domain.Epoch
	release  chan struct{}
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{
		started: make(chan domain.Epoch, 16),
		release: make(chan struct{}),
	}
}

func (h *blockingHandler) Handle(ctx context.Context, ev domain.RoundStarted) domain.RoundOutcome {
	e := ev.Epoch
	h.mu.Lock()
	h.inFlight++
	if h.inFlight > h.maxSeen {
		h.maxSeen = h.inFlight
	}
	h.mu.Unlock()

	h.started <- e
	select {
	case <-h.release:
	case <-ctx.Done():
	}

	h.mu.Lock()
	h.inFlight--
	h.handled = append(h.handled, e)
	h.mu.Unlock()
	return domain.RoundOutcome{Epoch: e, Final: domain.PhaseDone}
}

func waitStarted(t *testing.T, h *blockingHandler) domain.Epoch {
	t.Helper()
	select {
	case e := <-h.started:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("round did not start")
		return 0
	}
}

func TestQueue_ProcessesInOrderOneAtATime(t *testing.T) {
	h := newBlockingHandler()
	q := round.NewQueue(h, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes := make(chan domain.RoundOutcome, 4)
	q.OnOutcome(func(o domain.RoundOutcome) { outcomes <- o })

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	require.True(t, q.Enqueue(domain.RoundStarted{Epoch: 10}))
	assert.Equal(t, domain.Epoch(10), waitStarted(t, h))

	// 10 in flight, 11 buffered, 12 rejected (full)
	require.True(t, q.Enqueue(domain.RoundStarted{Epoch: 11}))
	assert.False(t, q.Enqueue(domain.RoundStarted{Epoch: 12}))
	assert.Equal(t, 1, q.Dropped())

	h.release <- struct{}{}
	assert.Equal(t, domain.Epoch(11), waitStarted(t, h))
	h.release <- struct{}{}

	assert.Equal(t, domain.Epoch(10), (<-outcomes).Epoch)
	assert.Equal(t, domain.Epoch(11), (<-outcomes).Epoch)

	cancel()
	require.NoError(t, <-done)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []domain.Epoch{10, 11}, h.handled)
	assert.Equal(t, 1, h.maxSeen)
}

func TestQueue_IgnoresStaleAndDuplicateEpochs(t *testing.T) {
	q := round.NewQueue(newBlockingHandler(), 4)

	assert.True(t, q.Enqueue(domain.RoundStarted{Epoch: 5}))
	assert.False(t, q.Enqueue(domain.RoundStarted{Epoch: 5}))
	assert.False(t, q.Enqueue(domain.RoundStarted{Epoch: 4}))
	assert.True(t, q.Enqueue(domain.RoundStarted{Epoch: 6}))
	assert.Equal(t, 0, q.Dropped())
}

func TestQueue_FeedStopsWhenSourceCloses(t *testing.T) {
	q := round.NewQueue(newBlockingHandler(), 4)
	src := make(chan domain.RoundStarted, 3)
	src <- domain.RoundStarted{Epoch: 1}
	src <- domain.RoundStarted{Epoch: 2}
	src <- domain.RoundStarted{Epoch: 2}
	close(src)

	finished := make(chan struct{})
	go func() {
		q.Feed(context.Background(), src)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not return")
	}
	// 3 is the next acceptable epoch
	assert.False(t, q.Enqueue(domain.RoundStarted{Epoch: 2}))
	assert.True(t, q.Enqueue(domain.RoundStarted{Epoch: 3}))
}

func TestQueue_RunReturnsOnCancel(t *testing.T) {
	q := round.NewQueue(newBlockingHandler(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, q.Run(ctx))
}

func TestQueue_QueuedRoundDoesNotSleepTwice(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(100, 50)
	ctrl := f.controller(domain.StrategyAgainst, round.Config{WaitTime: 300 * time.Millisecond})
	ctrl.SetClock(func() time.Time { return base })

	q := round.NewQueue(ctrl, 2)
	outcomes := make(chan domain.RoundOutcome, 2)
	q.OnOutcome(func(o domain.RoundOutcome) { outcomes <- o })

	// 11 arrived 250ms before the worker reaches it
	require.True(t, q.Enqueue(domain.RoundStarted{Epoch: 10, ReceivedAt: base}))
	require.True(t, q.Enqueue(domain.RoundStarted{Epoch: 11, ReceivedAt: base.Add(-250 * time.Millisecond)}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case o := <-outcomes:
			assert.True(t, o.BetPlaced)
		case <-time.After(2 * time.Second):
			t.Fatal("round not handled")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []time.Duration{300 * time.Millisecond, 50 * time.Millisecond}, f.slept)
}
