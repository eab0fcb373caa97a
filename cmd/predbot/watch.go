package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const (
	watchBackoffMin = 5 * time.Second
	watchBackoffMax = 1 * time.Minute
)

// watchRounds keeps the round watcher alive until ctx is done, restarting it
// with exponential backoff when the subscription or polling fails.
func watchRounds(ctx context.Context, market ports.PredictionMarket, sink chan<- domain.RoundStarted) {
	backoff := watchBackoffMin
	for {
		started := time.Now()
		err := market.WatchRounds(ctx, sink)
		if ctx.Err() != nil {
			return
		}

		// a watcher that ran for a while was healthy: start over
		if time.Since(started) > watchBackoffMax {
			backoff = watchBackoffMin
		}
		slog.Warn("watcher: stopped, restarting", "err", err, "in", backoff)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		backoff *= 2
		if backoff > watchBackoffMax {
			backoff = watchBackoffMax
		}
	}
}
