package notify

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

// Console implementa ports.Notifier y balance.Alerter escribiendo líneas de
// estado por cada fase de la ronda.
type Console struct {
	out    io.Writer
	market string

	green *color.Color // importes y decisiones
	blue  *color.Color // tx confirmadas
	red   *color.Color // fallos
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole crea un notificador que escribe a stdout con colores.
func NewConsole(market string) *Console {
	return NewConsoleWriter(os.Stdout, market, true)
}

// NewConsoleWriter crea un notificador sobre w. Sin colores para tests y pipes.
func NewConsoleWriter(w io.Writer, market string, colored bool) *Console {
	c := &Console{
		out:    w,
		market: market,
		green:  color.New(color.FgGreen),
		blue:   color.New(color.FgBlue),
		red:    color.New(color.FgRed),
	}
	if !colored {
		c.green.DisableColor()
		c.blue.DisableColor()
		c.red.DisableColor()
	}
	return c
}

// Banner imprime la cabecera de arranque.
func (c *Console) Banner(strategy domain.Strategy, account string, betAmount *big.Int, dryRun bool) {
	c.green.Fprintf(c.out, "%s predictions bot\n", marketTitle(c.market))
	fmt.Fprintf(c.out, "Strategy: %s | Account: %s | Bet: %s BNB\n",
		strings.ToUpper(strategy.String()), account, domain.FormatBNB(betAmount))
	if dryRun {
		c.red.Fprintln(c.out, "DRY RUN: bets are not sent")
	}
}

// Phase imprime la transición de fase.
func (c *Console) Phase(_ context.Context, ev ports.PhaseEvent) {
	switch ev.Phase {
	case domain.PhaseWaiting:
		fmt.Fprintf(c.out, "\n[%s] Started epoch %d\n", time.Now().Format("15:04:05"), ev.Epoch)
		fmt.Fprintf(c.out, "Now waiting for %.2f min\n", ev.Wait.Minutes())

	case domain.PhaseReadingPools:
		fmt.Fprintln(c.out, "Getting amounts")

	case domain.PhaseDeciding:
		if ev.Round != nil {
			c.green.Fprintf(c.out, "Bull amount %s BNB\n", domain.FormatBNB(ev.Round.BullAmount))
			c.green.Fprintf(c.out, "Bear amount %s BNB\n", domain.FormatBNB(ev.Round.BearAmount))
		}
		c.green.Fprintf(c.out, "Betting on %s\n", sideTitle(ev.Side))

	case domain.PhaseBetting:
		fmt.Fprintf(c.out, "%s betting tx started\n", sideTitle(ev.Side))

	case domain.PhaseBetSuccess:
		c.blue.Fprintf(c.out, "%s betting tx success %s\n", sideTitle(ev.Side), ev.TxHash)

	case domain.PhaseBetFailed:
		c.red.Fprintf(c.out, "%s betting tx error: %v\n", sideTitle(ev.Side), ev.Err)

	case domain.PhaseClaiming:
		fmt.Fprintln(c.out, "Checking claimable rounds")

	case domain.PhaseClaimSkipped:
		fmt.Fprintln(c.out, "Nothing to claim")

	case domain.PhaseClaimSuccess:
		c.blue.Fprintf(c.out, "Claim tx success %s epochs %s\n", ev.TxHash, epochList(ev.Epochs))

	case domain.PhaseClaimFailed:
		c.red.Fprintf(c.out, "Claim tx error: %v\n", ev.Err)

	case domain.PhaseDone:
		if ev.Err != nil {
			c.red.Fprintf(c.out, "Round %d aborted: %v\n", ev.Epoch, ev.Err)
		}
	}
}

// InsufficientFunds implementa balance.Alerter.
func (c *Console) InsufficientFunds(balance, required *big.Int) {
	c.red.Fprintf(c.out, "Insufficient funds in wallet to bet: %s BNB | Wallet balance: %s BNB\n",
		domain.FormatBNB(required), domain.FormatBNB(balance))
}

// --- helpers ---

func marketTitle(market string) string {
	switch market {
	case "candlegenie":
		return "CandleGenie"
	case "pancake", "":
		return "PancakeSwap"
	default:
		return market
	}
}

func sideTitle(s domain.Side) string {
	if s == domain.SideBull {
		return "Bull"
	}
	return "Bear"
}

func epochList(epochs []domain.Epoch) string {
	parts := make([]string, len(epochs))
	for i, e := range epochs {
		parts[i] = fmt.Sprintf("%d", e)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
