package balance

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const checkTimeout = 10 * time.Second

// Alerter is told when the wallet cannot cover the next bet.
type Alerter interface {
	InsufficientFunds(balance, required *big.Int)
}

// Monitor checks that the signer can afford the configured bet. It only warns:
// a low balance never stops the bot, the bet tx will simply fail.
type Monitor struct {
	wallet   ports.Wallet
	required *big.Int
	alerter  Alerter
	cron     *cron.Cron
}

// NewMonitor creates a monitor. alerter may be nil.
func NewMonitor(wallet ports.Wallet, required *big.Int, alerter Alerter) *Monitor {
	return &Monitor{wallet: wallet, required: required, alerter: alerter}
}

// Check reads the balance once. It returns whether the balance covers the
// bet; read errors are returned and logged by the caller.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	bal, err := m.wallet.Balance(checkCtx)
	if err != nil {
		return false, fmt.Errorf("balance.Check: %w", err)
	}

	if m.required != nil && bal.Cmp(m.required) < 0 {
		slog.Warn("balance: insufficient funds in wallet to bet",
			"address", m.wallet.Address().Hex(),
			"balance", domain.FormatBNB(bal),
			"bet_amount", domain.FormatBNB(m.required),
		)
		if m.alerter != nil {
			m.alerter.InsufficientFunds(bal, m.required)
		}
		return false, nil
	}

	slog.Info("balance: ok", "address", m.wallet.Address().Hex(), "balance", domain.FormatBNB(bal))
	return true, nil
}

// Start schedules Check on the given cron spec (e.g. "@every 30m").
// An empty spec disables the periodic check.
func (m *Monitor) Start(ctx context.Context, spec string) error {
	if spec == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := m.Check(ctx); err != nil {
			slog.Warn("balance: periodic check failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("balance.Start: register %q: %w", spec, err)
	}
	m.cron = c
	m.cron.Start()
	slog.Info("balance: periodic check scheduled", "spec", spec)
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}
