package notify

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// PrintHistory imprime el resumen del ledger y las tablas de apuestas y
// claims recientes.
func (c *Console) PrintHistory(stats domain.LedgerStats, bets []domain.BetRecord, claims []domain.ClaimRecord) {
	fmt.Fprintf(c.out, "\n── %s BET HISTORY ──\n", marketTitle(c.market))
	fmt.Fprintf(c.out, "  Bets:     %d placed | %d failed | %d skipped\n",
		stats.BetsPlaced, stats.BetsFailed, stats.BetsSkipped)
	fmt.Fprintf(c.out, "  Claims:   %d (%s BNB)\n", stats.Claims, domain.FormatBNB(stats.TotalClaimed))
	fmt.Fprintf(c.out, "  Fees:     %s BNB\n\n", domain.FormatBNB(stats.TotalFees))

	c.printBets(bets)
	c.printClaims(claims)
}

func (c *Console) printBets(bets []domain.BetRecord) {
	if len(bets) == 0 {
		fmt.Fprintln(c.out, "  (no bets recorded)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Market", "Epoch", "Strategy", "Side", "Bet", "Bull", "Bear", "Status", "Tx")
	for _, b := range bets {
		status := string(b.Status)
		if b.Error != "" {
			status += " (" + truncate(b.Error, 30) + ")"
		}
		table.Append(
			b.CreatedAt.Local().Format("01-02 15:04:05"),
			b.Market,
			fmt.Sprintf("%d", b.Epoch),
			b.Strategy.String(),
			b.Side.String(),
			domain.FormatBNB(b.Amount),
			domain.FormatBNB(b.BullAmount),
			domain.FormatBNB(b.BearAmount),
			status,
			shortHash(b.TxHash),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) printClaims(claims []domain.ClaimRecord) {
	if len(claims) == 0 {
		fmt.Fprintln(c.out, "  (no claims recorded)")
		return
	}

	fmt.Fprintln(c.out, "  Recent claims:")
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Market", "Epochs", "Total", "Status", "Tx")
	for _, cl := range claims {
		status := "ok"
		if !cl.Success {
			status = "failed"
			if cl.Error != "" {
				status += " (" + truncate(cl.Error, 30) + ")"
			}
		}
		table.Append(
			cl.CreatedAt.Local().Format("01-02 15:04:05"),
			cl.Market,
			reportEpochList(cl.Epochs),
			domain.FormatBNB(cl.Total),
			status,
			shortHash(cl.TxHash),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func reportEpochList(epochs []domain.Epoch) string {
	parts := make([]string, len(epochs))
	for i, e := range epochs {
		parts[i] = fmt.Sprintf("%d", e)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:8] + "…" + h[len(h)-4:]
}
