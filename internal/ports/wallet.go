package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is the signer account used for bets, claims and fee transfers.
type Wallet interface {
	Address() common.Address

	// Balance returns the native balance in wei.
	Balance(ctx context.Context) (*big.Int, error)

	// Transfer sends amount wei to the given address.
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (PendingTx, error)
}
