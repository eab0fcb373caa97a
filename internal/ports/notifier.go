package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// PhaseEvent describes one transition of the round controller.
type PhaseEvent struct {
	RunID  string
	Epoch  domain.Epoch
	Phase  domain.Phase
	Wait   time.Duration // set on WAITING
	Round  *domain.Round // set from READING_POOLS on
	Side   domain.Side   // set from DECIDING on
	TxHash string
	Epochs []domain.Epoch // claimed epochs
	Err    error
}

// Notifier presenta al usuario cada transición de fase de una ronda.
type Notifier interface {
	Phase(ctx context.Context, ev PhaseEvent)
}
