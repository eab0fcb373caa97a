package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// PendingTx is a submitted transaction whose confirmation can be awaited.
type PendingTx interface {
	Hash() common.Hash
	// Wait blocks until the tx is mined. A reverted tx returns
	// domain.ErrTxReverted.
	Wait(ctx context.Context) (domain.Receipt, error)
}

// PredictionMarket es la capacidad común de los contratos de predicción
// (PancakeSwap v2, CandleGenie v3). Cada adapter traduce estas operaciones
// a los métodos concretos de su contrato.
type PredictionMarket interface {
	// Name identifies the integration ("pancake", "candlegenie").
	Name() string

	// WatchRounds delivers a notification per StartRound event until ctx is
	// cancelled or the underlying subscription fails.
	WatchRounds(ctx context.Context, sink chan<- domain.RoundStarted) error

	// Round reads the pool totals of an epoch.
	Round(ctx context.Context, epoch domain.Epoch) (domain.Round, error)

	// Bet submits a payable bet of amount wei on side.
	Bet(ctx context.Context, epoch domain.Epoch, side domain.Side, amount *big.Int) (PendingTx, error)

	// Claim submits one claim for all epochs. The receipt carries one payout
	// per Claim event in emission order.
	Claim(ctx context.Context, epochs []domain.Epoch) (PendingTx, error)

	// BetInfo returns the account's ledger entry for an epoch.
	BetInfo(ctx context.Context, epoch domain.Epoch, account common.Address) (domain.BetInfo, error)

	// Claimable reports whether the account won the epoch and can claim it.
	Claimable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error)

	// Refundable reports whether the epoch was cancelled and the stake can be
	// taken back.
	Refundable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error)
}

// ClaimReader is the read-only subset used to resolve claimable epochs.
type ClaimReader interface {
	BetInfo(ctx context.Context, epoch domain.Epoch, account common.Address) (domain.BetInfo, error)
	Claimable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error)
	Refundable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error)
}
