package storage_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/predbot/internal/adapters/storage"
	"github.com/alejandrodnm/predbot/internal/domain"
)

func newDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeBet(epoch domain.Epoch, status domain.BetStatus, at time.Time) domain.BetRecord {
	return domain.BetRecord{
		RunID:      "run-1",
		Market:     "pancake",
		Epoch:      epoch,
		Side:       domain.SideBear,
		Strategy:   domain.StrategyWith,
		Amount:     big.NewInt(100_000_000_000_000_000),
		BullAmount: big.NewInt(300),
		BearAmount: big.NewInt(700),
		TxHash:     "0xabc",
		Status:     status,
		WaitTime:   281500 * time.Millisecond,
		CreatedAt:  at,
	}
}

func TestSQLiteStorage_RecordAndRecentBets(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, db.RecordBet(ctx, makeBet(10, domain.BetPlaced, base)))
	require.NoError(t, db.RecordBet(ctx, makeBet(11, domain.BetFailed, base.Add(time.Minute))))

	bets, err := db.RecentBets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bets, 2)

	// Más recientes primero
	assert.Equal(t, domain.Epoch(11), bets[0].Epoch)
	assert.Equal(t, domain.BetFailed, bets[0].Status)

	b := bets[1]
	assert.Equal(t, domain.Epoch(10), b.Epoch)
	assert.Equal(t, domain.SideBear, b.Side)
	assert.Equal(t, domain.StrategyWith, b.Strategy)
	assert.Equal(t, "100000000000000000", b.Amount.String())
	assert.Equal(t, "300", b.BullAmount.String())
	assert.Equal(t, "700", b.BearAmount.String())
	assert.Equal(t, 281500*time.Millisecond, b.WaitTime)
	assert.True(t, base.Equal(b.CreatedAt))
}

func TestSQLiteStorage_RecentBetsLimit(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordBet(ctx, makeBet(domain.Epoch(i+1), domain.BetPlaced, base.Add(time.Duration(i)*time.Second))))
	}

	bets, err := db.RecentBets(ctx, 2)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, domain.Epoch(5), bets[0].Epoch)
	assert.Equal(t, domain.Epoch(4), bets[1].Epoch)
}

func TestSQLiteStorage_NilAmountsStoredAsZero(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordBet(ctx, domain.BetRecord{
		RunID: "r", Market: "candlegenie", Epoch: 3, Status: domain.BetSkipped, Error: "read pools: timeout",
	}))

	bets, err := db.RecentBets(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "0", bets[0].Amount.String())
	assert.Equal(t, "read pools: timeout", bets[0].Error)
}

func TestSQLiteStorage_ClaimsRoundTrip(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordClaim(ctx, domain.ClaimRecord{
		RunID: "r", Market: "pancake", Epochs: []domain.Epoch{7, 9}, TxHash: "0x1",
		Total: big.NewInt(1500), Success: true,
	}))

	claims, err := db.RecentClaims(ctx, 5)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, []domain.Epoch{7, 9}, claims[0].Epochs)
	assert.Equal(t, "1500", claims[0].Total.String())
	assert.True(t, claims[0].Success)
}

func TestSQLiteStorage_Stats(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.RecordBet(ctx, makeBet(1, domain.BetPlaced, now)))
	require.NoError(t, db.RecordBet(ctx, makeBet(2, domain.BetPlaced, now)))
	require.NoError(t, db.RecordBet(ctx, makeBet(3, domain.BetFailed, now)))
	require.NoError(t, db.RecordBet(ctx, makeBet(4, domain.BetSkipped, now)))

	// uint256 grande: no cabe en int64
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	require.NoError(t, db.RecordClaim(ctx, domain.ClaimRecord{RunID: "a", Market: "pancake", Epochs: []domain.Epoch{1}, Total: huge, Success: true}))
	require.NoError(t, db.RecordClaim(ctx, domain.ClaimRecord{RunID: "b", Market: "pancake", Epochs: []domain.Epoch{2}, Total: big.NewInt(10)}))

	require.NoError(t, db.RecordFee(ctx, domain.FeeRecord{RunID: "a", Epoch: 1, Recipient: "0xfee", Amount: big.NewInt(40), Success: true}))
	require.NoError(t, db.RecordFee(ctx, domain.FeeRecord{RunID: "a", Epoch: 1, Recipient: "0xfee", Amount: big.NewInt(60), Error: "insufficient funds"}))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BetsPlaced)
	assert.Equal(t, 1, stats.BetsFailed)
	assert.Equal(t, 1, stats.BetsSkipped)
	assert.Equal(t, 1, stats.Claims)
	assert.Equal(t, huge.String(), stats.TotalClaimed.String())
	assert.Equal(t, "40", stats.TotalFees.String())
}

func TestSQLiteStorage_StatsEmpty(t *testing.T) {
	db := newDB(t)

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.BetsPlaced)
	assert.Equal(t, "0", stats.TotalClaimed.String())
	assert.Equal(t, "0", stats.TotalFees.String())
}

func TestNoop(t *testing.T) {
	var l storage.Noop
	ctx := context.Background()

	assert.NoError(t, l.RecordBet(ctx, domain.BetRecord{}))
	bets, err := l.RecentBets(ctx, 5)
	assert.NoError(t, err)
	assert.Empty(t, bets)
	stats, err := l.Stats(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "0", stats.TotalFees.String())
}
