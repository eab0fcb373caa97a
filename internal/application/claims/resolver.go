package claims

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

// DefaultLookback is how many epochs before the current one are checked.
// Older rounds are assumed claimed already or stale.
const DefaultLookback = 5

// Resolver finds the epochs the account can claim.
type Resolver struct {
	reader   ports.ClaimReader
	lookback int
	workers  int // 1 = one epoch at a time, in order
}

// NewResolver creates a resolver over reader. lookback <= 0 uses DefaultLookback.
func NewResolver(reader ports.ClaimReader, lookback int) *Resolver {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Resolver{reader: reader, lookback: lookback, workers: 1}
}

// SetWorkers sets how many epochs are checked in parallel.
func (r *Resolver) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	r.workers = n
}

// GetClaimableEpochs returns, in ascending order, every epoch in the lookback
// window where the account has an unclaimed winning or refundable bet.
// An epoch whose state cannot be read is skipped with a warning.
func (r *Resolver) GetClaimableEpochs(ctx context.Context, current domain.Epoch, account common.Address) ([]domain.Epoch, error) {
	var window []domain.Epoch
	for i := r.lookback; i >= 1; i-- {
		if domain.Epoch(i) >= current {
			continue // no epoch 0 or below
		}
		window = append(window, current-domain.Epoch(i))
	}
	if len(window) == 0 {
		return nil, nil
	}

	var results []epochResult
	if r.workers > 1 {
		results = r.checkEpochsConcurrent(ctx, window, account)
	} else {
		results = make([]epochResult, 0, len(window))
		for _, epoch := range window {
			ok, err := r.isClaimable(ctx, epoch, account)
			results = append(results, epochResult{claimable: ok, err: err})
			if err != nil && ctx.Err() != nil {
				break
			}
		}
	}

	var out []domain.Epoch
	for i, res := range results {
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("claims.GetClaimableEpochs: %w", ctx.Err())
			}
			slog.Warn("claims: skipping epoch, state unreadable", "epoch", window[i], "err", res.err)
			continue
		}
		if res.claimable {
			out = append(out, window[i])
		}
	}

	return out, nil
}

// GetClaimableEpochs is the functional form of NewResolver(reader, DefaultLookback).
func GetClaimableEpochs(ctx context.Context, reader ports.ClaimReader, current domain.Epoch, account common.Address) ([]domain.Epoch, error) {
	return NewResolver(reader, DefaultLookback).GetClaimableEpochs(ctx, current, account)
}

func (r *Resolver) isClaimable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error) {
	info, err := r.reader.BetInfo(ctx, epoch, account)
	if err != nil {
		return false, fmt.Errorf("bet info: %w", err)
	}
	if !info.HasBet() || info.Claimed {
		return false, nil
	}

	claimable, err := r.reader.Claimable(ctx, epoch, account)
	if err != nil {
		return false, fmt.Errorf("claimable: %w", err)
	}
	if claimable {
		return true, nil
	}

	refundable, err := r.reader.Refundable(ctx, epoch, account)
	if err != nil {
		return false, fmt.Errorf("refundable: %w", err)
	}
	return refundable, nil
}
