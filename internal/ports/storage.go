package ports

import (
	"context"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// Ledger persiste el historial de apuestas, claims y fees de cada ronda.
type Ledger interface {
	RecordBet(ctx context.Context, bet domain.BetRecord) error
	RecordClaim(ctx context.Context, claim domain.ClaimRecord) error
	RecordFee(ctx context.Context, fee domain.FeeRecord) error

	// RecentBets devuelve las últimas apuestas, más recientes primero.
	RecentBets(ctx context.Context, limit int) ([]domain.BetRecord, error)

	Stats(ctx context.Context) (domain.LedgerStats, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
