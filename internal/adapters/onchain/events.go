package onchain

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// decodeStartRound reads the indexed epoch of a StartRound log.
func decodeStartRound(contractABI abi.ABI, l types.Log) (domain.Epoch, error) {
	ev, ok := contractABI.Events[eventStartRound]
	if !ok {
		return 0, fmt.Errorf("abi has no %s event", eventStartRound)
	}
	if len(l.Topics) < 2 || l.Topics[0] != ev.ID {
		return 0, fmt.Errorf("log %s/%d is not %s", l.TxHash.Hex(), l.Index, eventStartRound)
	}
	epoch := new(big.Int).SetBytes(l.Topics[1].Bytes())
	if !epoch.IsUint64() {
		return 0, fmt.Errorf("epoch out of range: %s", epoch)
	}
	return domain.Epoch(epoch.Uint64()), nil
}

// decodeClaimLogs returns one payout per Claim event emitted by contract for
// account, preserving log order. Logs that fail to decode are skipped.
func decodeClaimLogs(contractABI abi.ABI, contract, account common.Address, logs []*types.Log) []domain.Payout {
	ev, ok := contractABI.Events[eventClaim]
	if !ok {
		return nil
	}

	var payouts []domain.Payout
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) < 3 || l.Topics[0] != ev.ID {
			continue
		}
		if common.BytesToAddress(l.Topics[1].Bytes()) != account {
			continue
		}

		values, err := ev.Inputs.NonIndexed().Unpack(l.Data)
		if err != nil || len(values) == 0 {
			slog.Warn("onchain: undecodable claim log", "tx", l.TxHash.Hex(), "index", l.Index, "err", err)
			continue
		}
		amount, ok := values[0].(*big.Int)
		if !ok {
			continue
		}

		payouts = append(payouts, domain.Payout{
			Epoch:  domain.Epoch(new(big.Int).SetBytes(l.Topics[2].Bytes()).Uint64()),
			Amount: amount,
		})
	}
	return payouts
}
