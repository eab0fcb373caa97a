package claims

// concurrent.go — worker pool para comprobar las epochs de la ventana en paralelo.
//
// Cada epoch cuesta hasta tres lecturas RPC (ledger, claimable, refundable).
// Con un pool de workers la ventana entera se resuelve en el tiempo de una
// epoch; el rate limiter del adapter sigue acotando las peticiones por segundo.

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/predbot/internal/domain"
)

type epochResult struct {
	claimable bool
	err       error
}

// checkEpochsConcurrent evalúa epochs con un pool de workers y devuelve los
// resultados en el mismo orden que la entrada.
func (r *Resolver) checkEpochsConcurrent(ctx context.Context, epochs []domain.Epoch, account common.Address) []epochResult {
	results := make([]epochResult, len(epochs))

	workers := r.workers
	if workers > len(epochs) {
		workers = len(epochs)
	}

	workCh := make(chan int, len(epochs))
	for i := range epochs {
		workCh <- i
	}
	close(workCh)

	// Cada worker escribe solo en su índice: no hace falta mutex sobre results.
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if ctx.Err() != nil {
					results[i] = epochResult{err: ctx.Err()}
					continue
				}
				ok, err := r.isClaimable(ctx, epochs[i], account)
				results[i] = epochResult{claimable: ok, err: err}
			}
		}()
	}
	wg.Wait()

	slog.Debug("claims: window checked", "epochs", len(epochs), "workers", workers)
	return results
}
