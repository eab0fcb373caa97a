package round

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// DefaultQueueSize lets one round wait while another is in flight. A round
// that waits longer than that has missed its betting window anyway.
const DefaultQueueSize = 1

// Handler processes one round. *Controller implements it.
type Handler interface {
	Handle(ctx context.Context, ev domain.RoundStarted) domain.RoundOutcome
}

// Queue serialises round handling: notifications are buffered in a bounded
// channel and consumed by a single worker in arrival order.
type Queue struct {
	handler Handler
	ch      chan domain.RoundStarted

	mu       sync.Mutex
	last     domain.Epoch
	hasLast  bool
	dropped  int
	outcomes func(domain.RoundOutcome)
}

// NewQueue creates a queue with capacity size (DefaultQueueSize if <= 0).
func NewQueue(handler Handler, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		handler: handler,
		ch:      make(chan domain.RoundStarted, size),
	}
}

// OnOutcome registers a callback invoked by the worker after every round.
func (q *Queue) OnOutcome(fn func(domain.RoundOutcome)) {
	q.mu.Lock()
	q.outcomes = fn
	q.mu.Unlock()
}

// Enqueue offers a notification to the worker. It returns false when the
// epoch is not newer than the last accepted one or when the queue is full.
func (q *Queue) Enqueue(ev domain.RoundStarted) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.hasLast && ev.Epoch <= q.last {
		slog.Debug("queue: ignoring stale or duplicate round", "epoch", ev.Epoch, "last", q.last)
		return false
	}

	select {
	case q.ch <- ev:
		q.last = ev.Epoch
		q.hasLast = true
		return true
	default:
		q.dropped++
		slog.Warn("queue: previous round still in flight, dropping round",
			"epoch", ev.Epoch, "dropped_total", q.dropped)
		return false
	}
}

// Dropped returns how many notifications were rejected because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Feed enqueues every notification from src until src is closed or ctx is done.
func (q *Queue) Feed(ctx context.Context, src <-chan domain.RoundStarted) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			q.Enqueue(ev)
		}
	}
}

// Run is the single worker. It returns nil once ctx is cancelled and the
// in-flight round (if any) has returned.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-q.ch:
			out := q.handler.Handle(ctx, ev)

			q.mu.Lock()
			fn := q.outcomes
			q.mu.Unlock()
			if fn != nil {
				fn(out)
			}
		}
	}
}
