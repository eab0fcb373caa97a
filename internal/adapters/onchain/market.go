package onchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

// Market names accepted by NewMarket.
const (
	MarketPancake     = "pancake"
	MarketCandleGenie = "candlegenie"
)

const (
	betGasLimit         = uint64(200_000)
	claimGasBase        = uint64(120_000)
	claimGasPerEpoch    = uint64(60_000)
	eventStartRound     = "StartRound"
	eventClaim          = "Claim"
	outputBullAmount    = "bullAmount"
	outputBearAmount    = "bearAmount"
	outputStartTime     = "startTimestamp"
	outputLockTime      = "lockTimestamp"
	outputCloseTime     = "closeTimestamp"
	outputPosition      = "position"
	outputAmount        = "amount"
	outputClaimed       = "claimed"
	positionBullOnChain = uint8(0)
)

// contractLayout maps the common prediction-market operations onto the
// method names of one concrete contract.
type contractLayout struct {
	name      string
	address   common.Address
	abi       abi.ABI
	rounds    string
	betBull   string
	betBear   string
	claim     string
	ledger    string
	closedOut string // bool output of rounds() that marks a resolved round
}

// Market implements ports.PredictionMarket on top of a Chain.
type Market struct {
	chain  *Chain
	layout contractLayout
}

var _ ports.PredictionMarket = (*Market)(nil)

// NewMarket returns the adapter for the named contract.
func NewMarket(name string, chain *Chain) (*Market, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MarketPancake, "":
		return NewPancake(chain), nil
	case MarketCandleGenie:
		return NewCandleGenie(chain), nil
	default:
		return nil, fmt.Errorf("onchain.NewMarket: %q: %w", name, domain.ErrUnknownMarket)
	}
}

func (m *Market) Name() string { return m.layout.name }

// Address returns the contract address.
func (m *Market) Address() common.Address { return m.layout.address }

// CurrentEpoch reads the contract's current epoch.
func (m *Market) CurrentEpoch(ctx context.Context) (domain.Epoch, error) {
	out, err := m.chain.call(ctx, m.layout.abi, m.layout.address, "currentEpoch")
	if err != nil {
		return 0, fmt.Errorf("onchain.CurrentEpoch: %w", err)
	}
	// single unnamed output lands under the empty key
	for _, v := range out {
		return domain.Epoch(toUint64(v)), nil
	}
	return 0, fmt.Errorf("onchain.CurrentEpoch: empty result")
}

func (m *Market) Round(ctx context.Context, epoch domain.Epoch) (domain.Round, error) {
	out, err := m.chain.call(ctx, m.layout.abi, m.layout.address, m.layout.rounds, epochArg(epoch))
	if err != nil {
		return domain.Round{}, fmt.Errorf("onchain.Round: epoch %d: %w", epoch, err)
	}

	r := domain.Round{
		Epoch:          epoch,
		BullAmount:     toBig(out[outputBullAmount]),
		BearAmount:     toBig(out[outputBearAmount]),
		StartTimestamp: toTime(out[outputStartTime]),
		LockTimestamp:  toTime(out[outputLockTime]),
		CloseTimestamp: toTime(out[outputCloseTime]),
	}
	if closed, ok := out[m.layout.closedOut].(bool); ok {
		r.Closed = closed
	}
	return r, nil
}

func (m *Market) Bet(ctx context.Context, epoch domain.Epoch, side domain.Side, amount *big.Int) (ports.PendingTx, error) {
	method := m.layout.betBear
	if side == domain.SideBull {
		method = m.layout.betBull
	}
	callData, err := m.layout.abi.Pack(method, epochArg(epoch))
	if err != nil {
		return nil, fmt.Errorf("onchain.Bet: pack %s: %w", method, err)
	}

	tx, err := m.chain.transact(ctx, m.layout.address, amount, callData, betGasLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("onchain.Bet: epoch %d %s: %w", epoch, side, err)
	}
	return tx, nil
}

func (m *Market) Claim(ctx context.Context, epochs []domain.Epoch) (ports.PendingTx, error) {
	if len(epochs) == 0 {
		return nil, fmt.Errorf("onchain.Claim: no epochs")
	}
	args := make([]*big.Int, len(epochs))
	for i, e := range epochs {
		args[i] = epochArg(e)
	}
	callData, err := m.layout.abi.Pack(m.layout.claim, args)
	if err != nil {
		return nil, fmt.Errorf("onchain.Claim: pack %s: %w", m.layout.claim, err)
	}

	gas := claimGasBase + claimGasPerEpoch*uint64(len(epochs))
	tx, err := m.chain.transact(ctx, m.layout.address, nil, callData, gas, m.decodePayouts)
	if err != nil {
		return nil, fmt.Errorf("onchain.Claim: %d epochs: %w", len(epochs), err)
	}
	return tx, nil
}

func (m *Market) BetInfo(ctx context.Context, epoch domain.Epoch, account common.Address) (domain.BetInfo, error) {
	out, err := m.chain.call(ctx, m.layout.abi, m.layout.address, m.layout.ledger, epochArg(epoch), account)
	if err != nil {
		return domain.BetInfo{}, fmt.Errorf("onchain.BetInfo: epoch %d: %w", epoch, err)
	}

	info := domain.BetInfo{
		Position: domain.SideBear,
		Amount:   toBig(out[outputAmount]),
	}
	if pos, ok := out[outputPosition].(uint8); ok && pos == positionBullOnChain {
		info.Position = domain.SideBull
	}
	if claimed, ok := out[outputClaimed].(bool); ok {
		info.Claimed = claimed
	}
	return info, nil
}

func (m *Market) Claimable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error) {
	return m.boolCall(ctx, "claimable", epoch, account)
}

func (m *Market) Refundable(ctx context.Context, epoch domain.Epoch, account common.Address) (bool, error) {
	return m.boolCall(ctx, "refundable", epoch, account)
}

func (m *Market) boolCall(ctx context.Context, method string, epoch domain.Epoch, account common.Address) (bool, error) {
	out, err := m.chain.call(ctx, m.layout.abi, m.layout.address, method, epochArg(epoch), account)
	if err != nil {
		return false, fmt.Errorf("onchain.%s: epoch %d: %w", method, epoch, err)
	}
	for _, v := range out {
		b, _ := v.(bool)
		return b, nil
	}
	return false, fmt.Errorf("onchain.%s: empty result", method)
}

// decodePayouts extracts the Claim events emitted by this contract for the
// signer, in log order.
func (m *Market) decodePayouts(receipt *types.Receipt) []domain.Payout {
	return decodeClaimLogs(m.layout.abi, m.layout.address, m.chain.address, receipt.Logs)
}

func epochArg(e domain.Epoch) *big.Int { return new(big.Int).SetUint64(uint64(e)) }

func toBig(v any) *big.Int {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(n)
	case uint64:
		return new(big.Int).SetUint64(n)
	case uint32:
		return new(big.Int).SetUint64(uint64(n))
	default:
		return new(big.Int)
	}
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case *big.Int:
		if n == nil || !n.IsUint64() {
			return 0
		}
		return n.Uint64()
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case uint8:
		return uint64(n)
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	secs := toUint64(v)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(int64(secs), 0).UTC()
}
