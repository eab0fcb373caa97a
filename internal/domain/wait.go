package domain

import "time"

const (
	// DefaultWaitTime is how long the bot sleeps after StartRound before
	// reading the pools. The betting phase lasts ~300s on both contracts.
	DefaultWaitTime = 281500 * time.Millisecond

	// DefaultBlockTime is the BNB Smart Chain block interval.
	DefaultBlockTime = 3 * time.Second
)

// ReduceWaitTime shortens the wait by two blocks after a failed bet so the
// next round submits earlier. The result never goes below zero.
func ReduceWaitTime(current, block time.Duration) time.Duration {
	next := current - 2*block
	if next < 0 {
		return 0
	}
	return next
}
