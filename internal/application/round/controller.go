package round

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"runtime/debug"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/domain/strategy"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const (
	defaultReadTimeout   = 15 * time.Second
	defaultLookupTimeout = 45 * time.Second
	defaultTxTimeout     = 90 * time.Second
)

// ClaimResolver finds the epochs the account can claim at a given round.
type ClaimResolver interface {
	GetClaimableEpochs(ctx context.Context, current domain.Epoch, account common.Address) ([]domain.Epoch, error)
}

// Config holds the per-process settings of the round controller.
type Config struct {
	Market       string
	BetAmount    *big.Int // wei
	WaitTime     time.Duration
	BlockTime    time.Duration
	FeeBps       int64
	FeeRecipient common.Address

	ReadTimeout   time.Duration // pool read
	LookupTimeout time.Duration // whole claimable-epoch lookup
	TxTimeout     time.Duration // submit + confirmation of one tx

	DryRun bool // decide but never send transactions
}

// Controller runs the lifecycle of one round:
// wait → read pools → decide → bet → claim → fees.
//
// The wait time is the only state shared across rounds. It is read and
// written from Handle only, so Handle must not run concurrently; Queue
// guarantees that.
type Controller struct {
	market    ports.PredictionMarket
	wallet    ports.Wallet
	resolver  ClaimResolver
	evaluator strategy.Evaluator
	ledger    ports.Ledger
	notifier  ports.Notifier
	cfg       Config

	wait  time.Duration
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	runID func() string
}

// New creates a controller. ledger and notifier may be nil; a nil ledger
// keeps no history.
func New(
	market ports.PredictionMarket,
	wallet ports.Wallet,
	resolver ClaimResolver,
	evaluator strategy.Evaluator,
	ledger ports.Ledger,
	notifier ports.Notifier,
	cfg Config,
) *Controller {
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = domain.DefaultWaitTime
	}
	if cfg.BlockTime <= 0 {
		cfg.BlockTime = domain.DefaultBlockTime
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	if cfg.BetAmount == nil {
		cfg.BetAmount = new(big.Int)
	}
	if cfg.FeeRecipient == (common.Address{}) && wallet != nil {
		cfg.FeeRecipient = wallet.Address()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Controller{
		market:    market,
		wallet:    wallet,
		resolver:  resolver,
		evaluator: evaluator,
		ledger:    ledger,
		notifier:  notifier,
		cfg:       cfg,
		wait:      cfg.WaitTime,
		sleep:     sleepCtx,
		now:       time.Now,
		runID:     func() string { return uuid.NewString() },
	}
}

// SetSleeper replaces the wait implementation. Used by tests.
func (c *Controller) SetSleeper(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// SetClock replaces the clock used to age notifications. Used by tests.
func (c *Controller) SetClock(fn func() time.Time) {
	c.now = fn
}

// WaitTime returns the wait that the next round will use.
func (c *Controller) WaitTime() time.Duration {
	return c.wait
}

// Handle processes one StartRound notification end to end. It never panics
// and never returns an error: failures are logged, reported to the notifier
// and summarised in the outcome.
//
// The wait is measured from ev.ReceivedAt, so time spent queued behind a
// previous round is not slept twice. A zero ReceivedAt waits the full time.
func (c *Controller) Handle(ctx context.Context, ev domain.RoundStarted) (out domain.RoundOutcome) {
	epoch := ev.Epoch
	out = domain.RoundOutcome{RunID: c.runID(), Epoch: epoch}
	log := slog.With("run_id", out.RunID, "market", c.cfg.Market, "epoch", epoch)

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("round.Handle: panic: %v", r)
			out.Final = domain.PhaseDone
			log.Error("round: panic recovered, round aborted", "panic", r, "stack", string(debug.Stack()))
			c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: epoch, Phase: domain.PhaseDone, Err: out.Err})
		}
	}()

	// 1. WAITING
	wait := c.wait
	remaining := c.remainingWait(wait, ev.ReceivedAt)
	log.Info("round: started, waiting", "wait", wait, "remaining", remaining)
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: epoch, Phase: domain.PhaseWaiting, Wait: remaining})
	if err := c.sleep(ctx, remaining); err != nil {
		out.Err = fmt.Errorf("round.Handle: wait: %w", err)
		return c.done(ctx, out, nil)
	}

	// 2. READING_POOLS
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: epoch, Phase: domain.PhaseReadingPools})
	rnd, err := c.readRound(ctx, epoch)
	if err != nil {
		out.Err = err
		log.Error("round: failed to read pools, skipping round", "err", err)
		c.recordBet(ctx, log, domain.BetRecord{
			RunID:    out.RunID,
			Epoch:    epoch,
			Strategy: c.evaluator.Strategy(),
			Status:   domain.BetSkipped,
			Error:    err.Error(),
			WaitTime: wait,
		})
		return c.done(ctx, out, nil)
	}
	log.Info("round: pools",
		"bull", domain.FormatBNB(rnd.BullAmount),
		"bear", domain.FormatBNB(rnd.BearAmount),
	)

	// 3. DECIDING
	side := c.evaluator.Decide(rnd.BullAmount, rnd.BearAmount)
	out.Side = side
	log.Info("round: decided", "strategy", c.evaluator.Strategy(), "side", side)
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: epoch, Phase: domain.PhaseDeciding, Round: &rnd, Side: side})

	// 4. BETTING — a failed bet never blocks claiming
	c.placeBet(ctx, log, &out, rnd, side, wait)

	// 5. CLAIMING + fees
	c.claim(ctx, log, &out)

	return c.done(ctx, out, &rnd)
}

// remainingWait is wait minus the time elapsed since the round was
// announced, floored at zero.
func (c *Controller) remainingWait(wait time.Duration, receivedAt time.Time) time.Duration {
	if receivedAt.IsZero() {
		return wait
	}
	left := wait - c.now().Sub(receivedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (c *Controller) done(ctx context.Context, out domain.RoundOutcome, rnd *domain.Round) domain.RoundOutcome {
	out.Final = domain.PhaseDone
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseDone, Round: rnd, Err: out.Err})
	return out
}

func (c *Controller) readRound(ctx context.Context, epoch domain.Epoch) (domain.Round, error) {
	readCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	rnd, err := c.market.Round(readCtx, epoch)
	if err != nil {
		return domain.Round{}, fmt.Errorf("round.readRound: %w", domain.AsTimeout(err, "read pools", c.cfg.ReadTimeout))
	}
	return rnd, nil
}

func (c *Controller) placeBet(ctx context.Context, log *slog.Logger, out *domain.RoundOutcome, rnd domain.Round, side domain.Side, wait time.Duration) {
	rec := domain.BetRecord{
		RunID:      out.RunID,
		Epoch:      rnd.Epoch,
		Side:       side,
		Strategy:   c.evaluator.Strategy(),
		Amount:     c.cfg.BetAmount,
		BullAmount: rnd.BullAmount,
		BearAmount: rnd.BearAmount,
		WaitTime:   wait,
	}

	if c.cfg.DryRun {
		log.Info("round: dry-run, bet not sent", "side", side, "amount", domain.FormatBNB(c.cfg.BetAmount))
		rec.Status = domain.BetSkipped
		rec.Error = "dry-run"
		c.recordBet(ctx, log, rec)
		return
	}

	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: rnd.Epoch, Phase: domain.PhaseBetting, Round: &rnd, Side: side})

	receipt, hash, err := c.send(ctx, "bet", func(txCtx context.Context) (ports.PendingTx, error) {
		return c.market.Bet(txCtx, rnd.Epoch, side, c.cfg.BetAmount)
	}, func(h common.Hash) {
		log.Info("round: bet tx sent", "side", side, "tx", h.Hex())
	})
	rec.TxHash = hashHex(hash)

	if err != nil {
		out.BetErr = err
		c.wait = domain.ReduceWaitTime(c.wait, c.cfg.BlockTime)
		log.Warn("round: bet failed, shortening wait for next rounds",
			"side", side, "err", err, "next_wait", c.wait)

		rec.Status = domain.BetFailed
		rec.Error = err.Error()
		c.recordBet(ctx, log, rec)
		c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: rnd.Epoch, Phase: domain.PhaseBetFailed, Side: side, TxHash: rec.TxHash, Err: err})
		return
	}

	out.BetPlaced = true
	log.Info("round: bet confirmed", "side", side, "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
	rec.Status = domain.BetPlaced
	c.recordBet(ctx, log, rec)
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: rnd.Epoch, Phase: domain.PhaseBetSuccess, Side: side, TxHash: rec.TxHash})
}

func (c *Controller) claim(ctx context.Context, log *slog.Logger, out *domain.RoundOutcome) {
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseClaiming})

	lookupCtx, cancel := context.WithTimeout(ctx, c.cfg.LookupTimeout)
	epochs, err := c.resolver.GetClaimableEpochs(lookupCtx, out.Epoch, c.wallet.Address())
	cancel()
	if err != nil {
		err = domain.AsTimeout(err, "claimable lookup", c.cfg.LookupTimeout)
		log.Warn("round: claimable lookup failed", "err", err)
		c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseClaimFailed, Err: err})
		return
	}
	if len(epochs) == 0 {
		log.Debug("round: nothing to claim")
		c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseClaimSkipped})
		return
	}
	if c.cfg.DryRun {
		log.Info("round: dry-run, claim not sent", "epochs", epochs)
		return
	}

	rec := domain.ClaimRecord{RunID: out.RunID, Epochs: epochs, Total: new(big.Int)}

	receipt, hash, err := c.send(ctx, "claim", func(txCtx context.Context) (ports.PendingTx, error) {
		return c.market.Claim(txCtx, epochs)
	}, func(h common.Hash) {
		log.Info("round: claim tx sent", "epochs", epochs, "tx", h.Hex())
	})
	rec.TxHash = hashHex(hash)

	if err != nil {
		log.Warn("round: claim failed", "epochs", epochs, "err", err)
		rec.Error = err.Error()
		c.recordClaim(ctx, log, rec)
		c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseClaimFailed, Epochs: epochs, TxHash: rec.TxHash, Err: err})
		return
	}

	for _, p := range receipt.Payouts {
		if p.Amount != nil {
			rec.Total.Add(rec.Total, p.Amount)
		}
	}
	rec.Success = true
	out.Claimed = epochs
	out.Payouts = receipt.Payouts
	log.Info("round: claim confirmed", "epochs", epochs, "payouts", len(receipt.Payouts), "total", domain.FormatBNB(rec.Total))
	c.recordClaim(ctx, log, rec)
	c.notifier.Phase(ctx, ports.PhaseEvent{RunID: out.RunID, Epoch: out.Epoch, Phase: domain.PhaseClaimSuccess, Epochs: epochs, TxHash: rec.TxHash})

	c.payFees(ctx, log, out, receipt.Payouts)
}

// payFees forwards the fee cut of every payout, one transfer at a time and in
// event order. A failed transfer does not stop the remaining ones.
func (c *Controller) payFees(ctx context.Context, log *slog.Logger, out *domain.RoundOutcome, payouts []domain.Payout) {
	for _, p := range payouts {
		fee := domain.CalculateFee(p.Amount, c.cfg.FeeBps)
		if fee.Sign() == 0 {
			log.Debug("round: fee is zero, skipping transfer", "payout_epoch", p.Epoch)
			continue
		}

		rec := domain.FeeRecord{
			RunID:     out.RunID,
			Epoch:     p.Epoch,
			Recipient: c.cfg.FeeRecipient.Hex(),
			Amount:    fee,
		}

		_, hash, err := c.send(ctx, "fee transfer", func(txCtx context.Context) (ports.PendingTx, error) {
			return c.wallet.Transfer(txCtx, c.cfg.FeeRecipient, fee)
		}, nil)
		rec.TxHash = hashHex(hash)

		if err != nil {
			out.FeeErrors++
			rec.Error = err.Error()
			log.Error("round: fee transfer failed", "payout_epoch", p.Epoch, "fee", domain.FormatBNB(fee), "err", err)
		} else {
			out.FeesSent++
			rec.Success = true
			log.Info("round: fee transferred", "payout_epoch", p.Epoch, "fee", domain.FormatBNB(fee), "tx", rec.TxHash)
		}
		c.recordFee(ctx, log, rec)

		if ctx.Err() != nil {
			return
		}
	}
}

// send submits a tx and waits for its confirmation under TxTimeout.
func (c *Controller) send(ctx context.Context, op string, submit func(context.Context) (ports.PendingTx, error), sent func(common.Hash)) (domain.Receipt, common.Hash, error) {
	txCtx, cancel := context.WithTimeout(ctx, c.cfg.TxTimeout)
	defer cancel()

	tx, err := submit(txCtx)
	if err != nil {
		return domain.Receipt{}, common.Hash{}, fmt.Errorf("%s: submit: %w", op, domain.AsTimeout(err, op, c.cfg.TxTimeout))
	}
	hash := tx.Hash()
	if sent != nil {
		sent(hash)
	}

	receipt, err := tx.Wait(txCtx)
	if err != nil {
		return domain.Receipt{}, hash, fmt.Errorf("%s: confirm %s: %w", op, hash.Hex(), domain.AsTimeout(err, op+" confirmation", c.cfg.TxTimeout))
	}
	return receipt, hash, nil
}

func (c *Controller) recordBet(ctx context.Context, log *slog.Logger, rec domain.BetRecord) {
	rec.Market = c.cfg.Market
	rec.CreatedAt = time.Now().UTC()
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordBet(ctx, rec); err != nil {
		log.Warn("round: failed to persist bet", "err", err)
	}
}

func (c *Controller) recordClaim(ctx context.Context, log *slog.Logger, rec domain.ClaimRecord) {
	rec.Market = c.cfg.Market
	rec.CreatedAt = time.Now().UTC()
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordClaim(ctx, rec); err != nil {
		log.Warn("round: failed to persist claim", "err", err)
	}
}

func (c *Controller) recordFee(ctx context.Context, log *slog.Logger, rec domain.FeeRecord) {
	rec.CreatedAt = time.Now().UTC()
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordFee(ctx, rec); err != nil {
		log.Warn("round: failed to persist fee", "err", err)
	}
}

func hashHex(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nopNotifier struct{}

func (nopNotifier) Phase(context.Context, ports.PhaseEvent) {}
