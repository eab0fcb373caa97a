package onchain

// chain.go — shared BNB Smart Chain client.
//
// Every transaction the bot sends (bet, claim, fee transfer) goes through
// Chain.transact:
//   - nonce from the pending state, serialised with txMu
//   - cached gas price with a 10% buffer
//   - gas estimation with a conservative fallback
//   - receipt polling until mined or ctx done

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const (
	// BSCChainID is BNB Smart Chain mainnet.
	BSCChainID = int64(56)

	defaultMaxRPS          = 10
	defaultPollInterval    = 3 * time.Second
	defaultReceiptPoll     = 2 * time.Second
	gasPriceUpdateInterval = 1 * time.Minute
	fallbackGasPriceWei    = 5_000_000_000 // 5 gwei
	transferGasLimit       = uint64(21_000)
)

// Backend is the subset of *ethclient.Client used by the bot.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	Close()
}

// ChainConfig configures the connection and signer.
type ChainConfig struct {
	RPCURL       string
	PrivateKey   string // hex, with or without 0x
	ChainID      int64  // 0 = BSC mainnet
	MaxRPS       float64
	PollInterval time.Duration // new-block polling for HTTP endpoints
}

// Chain implements ports.Wallet and carries the plumbing shared by the
// prediction contract adapters.
type Chain struct {
	backend      Backend
	key          *ecdsa.PrivateKey
	address      common.Address
	chainID      *big.Int
	subscribe    bool // endpoint supports eth_subscribe (ws/ipc)
	limiter      *rate.Limiter
	pollInterval time.Duration
	receiptPoll  time.Duration

	txMu sync.Mutex

	mu           sync.RWMutex
	cachedGasWei *big.Int
	gasUpdatedAt time.Time
}

// ParsePrivateKey decodes a hex private key, with or without 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	pkBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("onchain: decode private key: %w", err)
	}
	key, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("onchain: invalid private key: %w", err)
	}
	return key, nil
}

// Dial connects to the RPC endpoint and checks it serves the expected chain.
func Dial(ctx context.Context, cfg ChainConfig) (*Chain, error) {
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("onchain: dial rpc %s: %w", cfg.RPCURL, err)
	}

	want := cfg.ChainID
	if want == 0 {
		want = BSCChainID
	}
	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("onchain: fetch chain id: %w", err)
	}
	if got.Int64() != want {
		client.Close()
		return nil, fmt.Errorf("onchain: rpc serves chain %d, expected %d", got.Int64(), want)
	}

	return NewChain(client, key, cfg), nil
}

// NewChain wraps an existing backend. Used by Dial and by tests.
func NewChain(backend Backend, key *ecdsa.PrivateKey, cfg ChainConfig) *Chain {
	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = BSCChainID
	}
	maxRPS := cfg.MaxRPS
	if maxRPS <= 0 {
		maxRPS = defaultMaxRPS
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	url := strings.ToLower(cfg.RPCURL)

	return &Chain{
		backend:      backend,
		key:          key,
		address:      crypto.PubkeyToAddress(key.PublicKey),
		chainID:      big.NewInt(chainID),
		subscribe:    strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") || strings.HasSuffix(url, ".ipc"),
		limiter:      rate.NewLimiter(rate.Limit(maxRPS), int(maxRPS)+1),
		pollInterval: poll,
		receiptPoll:  defaultReceiptPoll,
	}
}

// SetReceiptPoll changes how often receipts are polled. Used by tests.
func (c *Chain) SetReceiptPoll(d time.Duration) { c.receiptPoll = d }

// Close releases the RPC connection.
func (c *Chain) Close() { c.backend.Close() }

// Address returns the signer address.
func (c *Chain) Address() common.Address { return c.address }

// Balance returns the signer's native balance in wei.
func (c *Chain) Balance(ctx context.Context) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("onchain: rate limiter: %w", err)
	}
	bal, err := c.backend.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return nil, fmt.Errorf("onchain: balance of %s: %w", c.address.Hex(), err)
	}
	return bal, nil
}

// Transfer sends amount wei to the given address.
func (c *Chain) Transfer(ctx context.Context, to common.Address, amount *big.Int) (ports.PendingTx, error) {
	tx, err := c.transact(ctx, to, amount, nil, transferGasLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("onchain.Transfer: %s to %s: %w", domain.FormatBNB(amount), to.Hex(), err)
	}
	return tx, nil
}

// call executes a read-only contract method and unpacks its outputs by name.
func (c *Chain) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...any) (map[string]any, error) {
	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.address,
		To:   &to,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out := make(map[string]any)
	if err := contractABI.UnpackIntoMap(out, method, result); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// transact signs and broadcasts a legacy (EIP-155) transaction.
func (c *Chain) transact(ctx context.Context, to common.Address, value *big.Int, callData []byte, fallbackGas uint64, decode func(*types.Receipt) []domain.Payout) (*pendingTx, error) {
	if value == nil {
		value = new(big.Int)
	}

	gasPrice, err := c.getGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.address,
		To:       &to,
		GasPrice: gasPrice,
		Value:    value,
		Data:     callData,
	})
	if err != nil {
		// A failing estimate usually means the call would revert (round
		// locked, already bet). Send anyway so the failure is on-chain and
		// visible; the receipt decides.
		slog.Warn("onchain: gas estimate failed, using default", "err", err, "limit", fallbackGas)
		gasLimit = fallbackGas
	} else if len(callData) > 0 {
		gasLimit = gasLimit * 12 / 10
	}

	c.txMu.Lock()
	defer c.txMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     callData,
	})

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	slog.Debug("onchain: transaction sent", "tx", signedTx.Hash().Hex(), "nonce", nonce, "gas", gasLimit)
	return &pendingTx{chain: c, hash: signedTx.Hash(), decode: decode}, nil
}

// getGasPrice returns the current gas price, with caching to avoid excessive RPC calls.
func (c *Chain) getGasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.RLock()
	cached := c.cachedGasWei
	updatedAt := c.gasUpdatedAt
	c.mu.RUnlock()

	if cached != nil && time.Since(updatedAt) < gasPriceUpdateInterval {
		return cached, nil
	}

	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		if cached != nil {
			return cached, nil
		}
		return big.NewInt(fallbackGasPriceWei), nil
	}

	// Add 10% buffer for faster inclusion (copy to avoid mutating SuggestGasPrice return)
	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))

	c.mu.Lock()
	c.cachedGasWei = buffered
	c.gasUpdatedAt = time.Now()
	c.mu.Unlock()

	return buffered, nil
}

// waitForReceipt polls for a transaction receipt until mined or ctx is done.
func (c *Chain) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			slog.Debug("onchain: receipt not available yet", "tx", txHash.Hex(), "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ ports.Wallet = (*Chain)(nil)

// pendingTx implements ports.PendingTx.
type pendingTx struct {
	chain  *Chain
	hash   common.Hash
	decode func(*types.Receipt) []domain.Payout
}

func (p *pendingTx) Hash() common.Hash { return p.hash }

func (p *pendingTx) Wait(ctx context.Context) (domain.Receipt, error) {
	receipt, err := p.chain.waitForReceipt(ctx, p.hash)
	if err != nil {
		return domain.Receipt{TxHash: p.hash}, fmt.Errorf("wait receipt: %w", err)
	}

	out := domain.Receipt{
		TxHash:  p.hash,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return out, fmt.Errorf("%w: %s", domain.ErrTxReverted, p.hash.Hex())
	}
	if p.decode != nil {
		out.Payouts = p.decode(receipt)
	}
	return out, nil
}
