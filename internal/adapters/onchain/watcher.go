package onchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// maxBlockRange caps a single eth_getLogs query; public BSC nodes reject
// wide ranges.
const maxBlockRange = uint64(1000)

// WatchRounds delivers one RoundStarted per StartRound event until ctx is
// cancelled (nil) or the subscription fails (error). WebSocket and IPC
// endpoints use eth_subscribe; HTTP endpoints poll new blocks.
func (m *Market) WatchRounds(ctx context.Context, sink chan<- domain.RoundStarted) error {
	q := ethereum.FilterQuery{
		Addresses: []common.Address{m.layout.address},
		Topics:    [][]common.Hash{{m.layout.abi.Events[eventStartRound].ID}},
	}

	handle := func(l types.Log) bool {
		if l.Removed {
			slog.Debug("watcher: ignoring removed log", "tx", l.TxHash.Hex(), "block", l.BlockNumber)
			return true
		}
		epoch, err := decodeStartRound(m.layout.abi, l)
		if err != nil {
			slog.Warn("watcher: undecodable StartRound log", "err", err)
			return true
		}
		ev := domain.RoundStarted{
			Epoch:       epoch,
			BlockNumber: l.BlockNumber,
			TxHash:      l.TxHash,
			ReceivedAt:  time.Now(),
		}
		slog.Info("watcher: round started", "market", m.layout.name, "epoch", epoch, "block", l.BlockNumber)
		select {
		case sink <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if m.chain.subscribe {
		return m.chain.subscribeLogs(ctx, q, handle)
	}
	return m.chain.pollLogs(ctx, q, handle)
}

func (c *Chain) subscribeLogs(ctx context.Context, q ethereum.FilterQuery, handle func(types.Log) bool) error {
	ch := make(chan types.Log, 16)
	sub, err := c.backend.SubscribeFilterLogs(ctx, q, ch)
	if err != nil {
		return fmt.Errorf("onchain.subscribeLogs: %w", err)
	}
	defer sub.Unsubscribe()

	slog.Info("watcher: subscribed to round events")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("onchain.subscribeLogs: subscription dropped: %w", err)
		case l := <-ch:
			if !handle(l) {
				return nil
			}
		}
	}
}

// pollLogs starts at the current head so only rounds opened after startup
// are delivered.
func (c *Chain) pollLogs(ctx context.Context, q ethereum.FilterQuery, handle func(types.Log) bool) error {
	head, err := c.blockNumber(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("onchain.pollLogs: initial head: %w", err)
	}
	next := head + 1

	slog.Info("watcher: polling round events", "from_block", next, "interval", c.pollInterval)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		head, err := c.blockNumber(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("watcher: block number failed", "err", err)
			continue
		}
		if head < next {
			continue
		}

		to := head
		if to-next+1 > maxBlockRange {
			to = next + maxBlockRange - 1
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil
		}
		q.FromBlock = new(big.Int).SetUint64(next)
		q.ToBlock = new(big.Int).SetUint64(to)
		logs, err := c.backend.FilterLogs(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("watcher: filter logs failed", "from", next, "to", to, "err", err)
			continue
		}

		for _, l := range logs {
			if !handle(l) {
				return nil
			}
		}
		next = to + 1
	}
}

func (c *Chain) blockNumber(ctx context.Context) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.backend.BlockNumber(ctx)
}
