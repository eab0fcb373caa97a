package storage

// sqlite.go — historial de rondas en SQLite (pure Go, sin CGo).
//
// Tablas:
//   - `bets`:          una fila por ronda gestionada (PLACED, FAILED o SKIPPED).
//   - `claims`:        una fila por transacción de claim (varias epochs).
//   - `fee_transfers`: una fila por transferencia de fee, ligada a su epoch.
//
// Los importes en wei se guardan como TEXT decimal: uint256 no cabe en INTEGER.
// Los timestamps se guardan en unix millis.

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS bets (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT    NOT NULL,
    market       TEXT    NOT NULL,
    epoch        INTEGER NOT NULL,
    side         TEXT    NOT NULL,
    strategy     TEXT    NOT NULL,
    amount_wei   TEXT    NOT NULL DEFAULT '0',
    bull_wei     TEXT    NOT NULL DEFAULT '0',
    bear_wei     TEXT    NOT NULL DEFAULT '0',
    tx_hash      TEXT    NOT NULL DEFAULT '',
    status       TEXT    NOT NULL,
    error        TEXT    NOT NULL DEFAULT '',
    wait_ms      INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS claims (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT    NOT NULL,
    market       TEXT    NOT NULL,
    epochs       TEXT    NOT NULL,      -- "12,13,15"
    tx_hash      TEXT    NOT NULL DEFAULT '',
    total_wei    TEXT    NOT NULL DEFAULT '0',
    success      INTEGER NOT NULL DEFAULT 0,
    error        TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fee_transfers (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT    NOT NULL,
    epoch        INTEGER NOT NULL,
    recipient    TEXT    NOT NULL,
    amount_wei   TEXT    NOT NULL DEFAULT '0',
    tx_hash      TEXT    NOT NULL DEFAULT '',
    success      INTEGER NOT NULL DEFAULT 0,
    error        TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_created  ON bets(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bets_epoch    ON bets(market, epoch);
CREATE INDEX IF NOT EXISTS idx_claims_run    ON claims(run_id);
CREATE INDEX IF NOT EXISTS idx_fees_epoch    ON fee_transfers(epoch);
`

// SQLiteStorage implementa ports.Ledger usando SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ ports.Ledger = (*SQLiteStorage)(nil)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// RecordBet guarda el resultado de la apuesta de una ronda.
func (s *SQLiteStorage) RecordBet(ctx context.Context, b domain.BetRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bets
		  (run_id, market, epoch, side, strategy, amount_wei, bull_wei, bear_wei,
		   tx_hash, status, error, wait_ms, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.RunID, b.Market, int64(b.Epoch), b.Side.String(), b.Strategy.String(),
		weiString(b.Amount), weiString(b.BullAmount), weiString(b.BearAmount),
		b.TxHash, string(b.Status), b.Error, b.WaitTime.Milliseconds(), unixMillis(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("storage.RecordBet: epoch %d: %w", b.Epoch, err)
	}
	return nil
}

// RecentBets devuelve las últimas apuestas, más recientes primero.
func (s *SQLiteStorage) RecentBets(ctx context.Context, limit int) ([]domain.BetRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, market, epoch, side, strategy, amount_wei, bull_wei, bear_wei,
		       tx_hash, status, error, wait_ms, created_at
		FROM bets
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentBets: query: %w", err)
	}
	defer rows.Close()

	var bets []domain.BetRecord
	for rows.Next() {
		var (
			b                   domain.BetRecord
			epoch, waitMs, at   int64
			side, strat, status string
			amount, bull, bear  string
		)
		if err := rows.Scan(&b.RunID, &b.Market, &epoch, &side, &strat, &amount, &bull, &bear,
			&b.TxHash, &status, &b.Error, &waitMs, &at); err != nil {
			return nil, fmt.Errorf("storage.RecentBets: scan row: %w", err)
		}
		b.Epoch = domain.Epoch(epoch)
		b.Side, _ = domain.ParseSide(side)
		if strat == domain.StrategyWith.String() {
			b.Strategy = domain.StrategyWith
		}
		b.Amount = parseWei(amount)
		b.BullAmount = parseWei(bull)
		b.BearAmount = parseWei(bear)
		b.Status = domain.BetStatus(status)
		b.WaitTime = time.Duration(waitMs) * time.Millisecond
		b.CreatedAt = time.UnixMilli(at).UTC()
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// Stats agrega el historial completo.
func (s *SQLiteStorage) Stats(ctx context.Context) (domain.LedgerStats, error) {
	stats := domain.LedgerStats{
		TotalClaimed: new(big.Int),
		TotalFees:    new(big.Int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bets GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("storage.Stats: bets: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return stats, fmt.Errorf("storage.Stats: scan bets: %w", err)
		}
		switch domain.BetStatus(status) {
		case domain.BetPlaced:
			stats.BetsPlaced = n
		case domain.BetFailed:
			stats.BetsFailed = n
		case domain.BetSkipped:
			stats.BetsSkipped = n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("storage.Stats: bets: %w", err)
	}

	// Las sumas se hacen en Go: SUM() sobre TEXT pierde precisión.
	stats.Claims, err = s.sumWei(ctx, `SELECT total_wei FROM claims WHERE success = 1`, stats.TotalClaimed)
	if err != nil {
		return stats, fmt.Errorf("storage.Stats: claims: %w", err)
	}
	if _, err := s.sumWei(ctx, `SELECT amount_wei FROM fee_transfers WHERE success = 1`, stats.TotalFees); err != nil {
		return stats, fmt.Errorf("storage.Stats: fees: %w", err)
	}
	return stats, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// sumWei acumula en total la única columna TEXT de query y devuelve el número de filas.
func (s *SQLiteStorage) sumWei(ctx context.Context, query string, total *big.Int) (int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return n, err
		}
		total.Add(total, parseWei(v))
		n++
	}
	return n, rows.Err()
}

func weiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseWei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func unixMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
