package onchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// PancakeSwap PredictionV2 on BSC.
var PancakePredictionAddress = common.HexToAddress("0x18B2A687610328590Bc8F2e5fEdDe3b582A49cdA")

// Minimal ABI: round reads, bets, claims, account ledger and the two events
// the bot consumes.
const pancakeABIJSON = `[
	{"inputs":[{"name":"","type":"uint256"}],"name":"rounds","outputs":[
		{"name":"epoch","type":"uint256"},
		{"name":"startTimestamp","type":"uint256"},
		{"name":"lockTimestamp","type":"uint256"},
		{"name":"closeTimestamp","type":"uint256"},
		{"name":"lockPrice","type":"int256"},
		{"name":"closePrice","type":"int256"},
		{"name":"lockOracleId","type":"uint256"},
		{"name":"closeOracleId","type":"uint256"},
		{"name":"totalAmount","type":"uint256"},
		{"name":"bullAmount","type":"uint256"},
		{"name":"bearAmount","type":"uint256"},
		{"name":"rewardBaseCalAmount","type":"uint256"},
		{"name":"rewardAmount","type":"uint256"},
		{"name":"oracleCalled","type":"bool"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"}],"name":"betBull","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"}],"name":"betBear","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"epochs","type":"uint256[]"}],"name":"claim","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"},{"name":"user","type":"address"}],"name":"claimable","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"},{"name":"user","type":"address"}],"name":"refundable","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"","type":"uint256"},{"name":"","type":"address"}],"name":"ledger","outputs":[
		{"name":"position","type":"uint8"},
		{"name":"amount","type":"uint256"},
		{"name":"claimed","type":"bool"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"currentEpoch","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"epoch","type":"uint256"}],"name":"StartRound","type":"event"},
	{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":true,"name":"epoch","type":"uint256"},
		{"indexed":false,"name":"amount","type":"uint256"}
	],"name":"Claim","type":"event"}
]`

var pancakeABI abi.ABI

func init() {
	var err error
	pancakeABI, err = abi.JSON(strings.NewReader(pancakeABIJSON))
	if err != nil {
		panic("onchain: invalid pancake prediction ABI: " + err.Error())
	}
}

// NewPancake returns the PancakeSwap PredictionV2 adapter.
func NewPancake(chain *Chain) *Market {
	return &Market{
		chain: chain,
		layout: contractLayout{
			name:      MarketPancake,
			address:   PancakePredictionAddress,
			abi:       pancakeABI,
			rounds:    "rounds",
			betBull:   "betBull",
			betBear:   "betBear",
			claim:     "claim",
			ledger:    "ledger",
			closedOut: "oracleCalled",
		},
	}
}
