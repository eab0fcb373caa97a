package storage

// settlements.go — claims y transferencias de fee.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// RecordClaim guarda una transacción de claim, exitosa o no.
func (s *SQLiteStorage) RecordClaim(ctx context.Context, c domain.ClaimRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (run_id, market, epochs, tx_hash, total_wei, success, error, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		c.RunID, c.Market, joinEpochs(c.Epochs), c.TxHash, weiString(c.Total),
		boolToInt(c.Success), c.Error, unixMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordClaim: %w", err)
	}
	return nil
}

// RecordFee guarda una transferencia de fee.
func (s *SQLiteStorage) RecordFee(ctx context.Context, f domain.FeeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_transfers (run_id, epoch, recipient, amount_wei, tx_hash, success, error, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		f.RunID, int64(f.Epoch), f.Recipient, weiString(f.Amount), f.TxHash,
		boolToInt(f.Success), f.Error, unixMillis(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordFee: epoch %d: %w", f.Epoch, err)
	}
	return nil
}

// RecentClaims devuelve los últimos claims, más recientes primero.
func (s *SQLiteStorage) RecentClaims(ctx context.Context, limit int) ([]domain.ClaimRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, market, epochs, tx_hash, total_wei, success, error, created_at
		FROM claims
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentClaims: query: %w", err)
	}
	defer rows.Close()

	var claims []domain.ClaimRecord
	for rows.Next() {
		var (
			c             domain.ClaimRecord
			epochs, total string
			success       int
			at            int64
		)
		if err := rows.Scan(&c.RunID, &c.Market, &epochs, &c.TxHash, &total, &success, &c.Error, &at); err != nil {
			return nil, fmt.Errorf("storage.RecentClaims: scan row: %w", err)
		}
		c.Epochs = splitEpochs(epochs)
		c.Total = parseWei(total)
		c.Success = success == 1
		c.CreatedAt = time.UnixMilli(at).UTC()
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func joinEpochs(epochs []domain.Epoch) string {
	parts := make([]string, len(epochs))
	for i, e := range epochs {
		parts[i] = strconv.FormatUint(uint64(e), 10)
	}
	return strings.Join(parts, ",")
}

func splitEpochs(s string) []domain.Epoch {
	if s == "" {
		return nil
	}
	var out []domain.Epoch
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, domain.Epoch(n))
	}
	return out
}
