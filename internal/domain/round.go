package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Epoch identifies one betting round. Epochs increase monotonically.
type Epoch uint64

// Side is one of the two positions a bettor can take on a round.
type Side int

const (
	SideBull Side = iota
	SideBear
)

// String returns "BULL" or "BEAR".
func (s Side) String() string {
	switch s {
	case SideBull:
		return "BULL"
	case SideBear:
		return "BEAR"
	default:
		return "UNKNOWN"
	}
}

// ParseSide is the inverse of Side.String. Used when reading the ledger back.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "BULL":
		return SideBull, true
	case "BEAR":
		return SideBear, true
	default:
		return 0, false
	}
}

// Round is the on-chain state of an epoch as seen by the bot.
type Round struct {
	Epoch          Epoch
	BullAmount     *big.Int // wei
	BearAmount     *big.Int // wei
	StartTimestamp time.Time
	LockTimestamp  time.Time
	CloseTimestamp time.Time
	Closed         bool // oracle called / round resolved
}

// TotalAmount returns bull + bear.
func (r Round) TotalAmount() *big.Int {
	total := new(big.Int)
	if r.BullAmount != nil {
		total.Add(total, r.BullAmount)
	}
	if r.BearAmount != nil {
		total.Add(total, r.BearAmount)
	}
	return total
}

// BetInfo is the account's ledger entry for one epoch on the contract.
type BetInfo struct {
	Position Side
	Amount   *big.Int // wei, zero when the account did not bet
	Claimed  bool
}

// HasBet reports whether the account put money on the epoch.
func (b BetInfo) HasBet() bool {
	return b.Amount != nil && b.Amount.Sign() > 0
}

// RoundStarted is emitted by the contract when a new epoch opens for bets.
type RoundStarted struct {
	Epoch       Epoch
	BlockNumber uint64
	TxHash      common.Hash
	ReceivedAt  time.Time
}

// Payout is a decoded Claim event: the amount paid out for one epoch.
type Payout struct {
	Epoch  Epoch
	Amount *big.Int // wei
}

// Receipt is the confirmed result of a transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Payouts     []Payout // only populated for claim transactions
}
