package onchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CandleGenie PredictionV3 on BSC.
var CandleGeniePredictionAddress = common.HexToAddress("0x995294CdBfBf7784060BD3Bec05CE38a5F94A0C5")

// Same operations as PancakeSwap under different names; timestamps are uint32.
const candleGenieABIJSON = `[
	{"inputs":[{"name":"","type":"uint256"}],"name":"Rounds","outputs":[
		{"name":"epoch","type":"uint256"},
		{"name":"bullAmount","type":"uint256"},
		{"name":"bearAmount","type":"uint256"},
		{"name":"rewardBaseCalAmount","type":"uint256"},
		{"name":"rewardAmount","type":"uint256"},
		{"name":"lockPrice","type":"int256"},
		{"name":"closePrice","type":"int256"},
		{"name":"startTimestamp","type":"uint32"},
		{"name":"lockTimestamp","type":"uint32"},
		{"name":"closeTimestamp","type":"uint32"},
		{"name":"lockPriceTimestamp","type":"uint32"},
		{"name":"closePriceTimestamp","type":"uint32"},
		{"name":"closed","type":"bool"},
		{"name":"canceled","type":"bool"}
	],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"}],"name":"user_BetBull","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"}],"name":"user_BetBear","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"epochs","type":"uint256[]"}],"name":"user_Claim","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"},{"name":"user","type":"address"}],"name":"claimable","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"epoch","type":"uint256"},{"name":"user","type":"address"}],"name":"refundable","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"","type":"uint256"},{"name":"","type":"address"}],"name":"Bets","outputs":[
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

var candleGenieABI abi.ABI

func init() {
	var err error
	candleGenieABI, err = abi.JSON(strings.NewReader(candleGenieABIJSON))
	if err != nil {
		panic("onchain: invalid candlegenie prediction ABI: " + err.Error())
	}
}

// NewCandleGenie returns the CandleGenie PredictionV3 adapter.
func NewCandleGenie(chain *Chain) *Market {
	return &Market{
		chain: chain,
		layout: contractLayout{
			name:      MarketCandleGenie,
			address:   CandleGeniePredictionAddress,
			abi:       candleGenieABI,
			rounds:    "Rounds",
			betBull:   "user_BetBull",
			betBear:   "user_BetBear",
			claim:     "user_Claim",
			ledger:    "Bets",
			closedOut: "closed",
		},
	}
}
