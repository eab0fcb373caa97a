package storage

import (
	"context"
	"math/big"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

// Noop descarta todo. Se usa con storage.dsn: none; un dsn vacío toma el
// default predbot.db.
type Noop struct{}

var _ ports.Ledger = Noop{}

func (Noop) RecordBet(context.Context, domain.BetRecord) error     { return nil }
func (Noop) RecordClaim(context.Context, domain.ClaimRecord) error { return nil }
func (Noop) RecordFee(context.Context, domain.FeeRecord) error     { return nil }

func (Noop) RecentBets(context.Context, int) ([]domain.BetRecord, error) { return nil, nil }

func (Noop) Stats(context.Context) (domain.LedgerStats, error) {
	return domain.LedgerStats{TotalClaimed: new(big.Int), TotalFees: new(big.Int)}, nil
}

func (Noop) Close() error { return nil }
