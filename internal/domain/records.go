package domain

import (
	"math/big"
	"time"
)

// Phase is a state of the round controller.
type Phase string

const (
	PhaseWaiting      Phase = "WAITING"
	PhaseReadingPools Phase = "READING_POOLS"
	PhaseDeciding     Phase = "DECIDING"
	PhaseBetting      Phase = "BETTING"
	PhaseBetSuccess   Phase = "BET_SUCCESS"
	PhaseBetFailed    Phase = "BET_FAILED"
	PhaseClaiming     Phase = "CLAIMING"
	PhaseClaimSuccess Phase = "CLAIM_SUCCESS"
	PhaseClaimFailed  Phase = "CLAIM_FAILED"
	PhaseClaimSkipped Phase = "CLAIM_SKIPPED"
	PhaseDone         Phase = "DONE"
)

// BetStatus is the outcome of a bet attempt.
type BetStatus string

const (
	BetPlaced  BetStatus = "PLACED"
	BetFailed  BetStatus = "FAILED"
	BetSkipped BetStatus = "SKIPPED" // pools unreadable or dry-run
)

// BetRecord is one row of bet history.
type BetRecord struct {
	RunID      string
	Market     string
	Epoch      Epoch
	Side       Side
	Strategy   Strategy
	Amount     *big.Int
	BullAmount *big.Int
	BearAmount *big.Int
	TxHash     string
	Status     BetStatus
	Error      string
	WaitTime   time.Duration // wait used for this round
	CreatedAt  time.Time
}

// ClaimRecord is one claim transaction covering several epochs.
type ClaimRecord struct {
	RunID     string
	Market    string
	Epochs    []Epoch
	TxHash    string
	Total     *big.Int // sum of payouts
	Success   bool
	Error     string
	CreatedAt time.Time
}

// FeeRecord is one fee transfer for a payout.
type FeeRecord struct {
	RunID     string
	Epoch     Epoch
	Recipient string
	Amount    *big.Int
	TxHash    string
	Success   bool
	Error     string
	CreatedAt time.Time
}

// LedgerStats aggregates the persisted history.
type LedgerStats struct {
	BetsPlaced   int
	BetsFailed   int
	BetsSkipped  int
	Claims       int
	TotalClaimed *big.Int
	TotalFees    *big.Int
}

// RoundOutcome summarises one handled round.
type RoundOutcome struct {
	RunID     string
	Epoch     Epoch
	Side      Side
	BetPlaced bool
	BetErr    error
	Claimed   []Epoch
	Payouts   []Payout
	FeesSent  int
	FeeErrors int
	Err       error // fatal error for the round (read failure, panic)
	Final     Phase
}
