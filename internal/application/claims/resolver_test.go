package claims_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/alejandrodnm/predbot/internal/application/claims"
	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type epochState struct {
	info       domain.BetInfo
	claimable  bool
	refundable bool
	err        error
}

type mockReader struct {
	states map[domain.Epoch]epochState
	calls  []domain.Epoch
}

func (m *mockReader) BetInfo(_ context.Context, e domain.Epoch, _ common.Address) (domain.BetInfo, error) {
	m.calls = append(m.calls, e)
	st := m.states[e]
	if st.err != nil {
		return domain.BetInfo{}, st.err
	}
	if st.info.Amount == nil {
		st.info.Amount = new(big.Int)
	}
	return st.info, nil
}

func (m *mockReader) Claimable(_ context.Context, e domain.Epoch, _ common.Address) (bool, error) {
	return m.states[e].claimable, nil
}

func (m *mockReader) Refundable(_ context.Context, e domain.Epoch, _ common.Address) (bool, error) {
	return m.states[e].refundable, nil
}

var account = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func bet(amount int64, claimed bool) domain.BetInfo {
	return domain.BetInfo{Position: domain.SideBull, Amount: big.NewInt(amount), Claimed: claimed}
}

// --- tests ---

func TestGetClaimableEpochs_AscendingAndFiltered(t *testing.T) {
	r := &mockReader{states: map[domain.Epoch]epochState{
		95:  {info: bet(10, false), claimable: true},  // outside window
		96:  {info: bet(10, false), claimable: true},  // won
		97:  {info: bet(10, true), claimable: true},   // already claimed
		98:  {info: bet(0, false), claimable: true},   // no bet
		99:  {info: bet(10, false), refundable: true}, // cancelled round
		100: {info: bet(10, false)},                   // lost
	}}

	got, err := claims.NewResolver(r, 5).GetClaimableEpochs(context.Background(), 101, account)
	require.NoError(t, err)
	assert.Equal(t, []domain.Epoch{96, 99}, got)
	assert.Equal(t, []domain.Epoch{96, 97, 98, 99, 100}, r.calls)
}

func TestGetClaimableEpochs_NoneIsEmptyNotError(t *testing.T) {
	r := &mockReader{states: map[domain.Epoch]epochState{}}

	got, err := claims.GetClaimableEpochs(context.Background(), r, 500, account)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetClaimableEpochs_NeverBelowEpochOne(t *testing.T) {
	r := &mockReader{states: map[domain.Epoch]epochState{
		1: {info: bet(10, false), claimable: true},
		2: {info: bet(10, false), claimable: true},
	}}

	got, err := claims.NewResolver(r, 5).GetClaimableEpochs(context.Background(), 3, account)
	require.NoError(t, err)
	assert.Equal(t, []domain.Epoch{1, 2}, got)
	assert.NotContains(t, r.calls, domain.Epoch(0))
}

func TestGetClaimableEpochs_SkipsUnreadableEpoch(t *testing.T) {
	r := &mockReader{states: map[domain.Epoch]epochState{
		8: {err: errors.New("rpc down")},
		9: {info: bet(10, false), claimable: true},
	}}

	got, err := claims.NewResolver(r, 2).GetClaimableEpochs(context.Background(), 10, account)
	require.NoError(t, err)
	assert.Equal(t, []domain.Epoch{9}, got)
}

func TestGetClaimableEpochs_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &mockReader{states: map[domain.Epoch]epochState{
		9: {err: context.Canceled},
	}}

	_, err := claims.NewResolver(r, 1).GetClaimableEpochs(ctx, 10, account)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetClaimableEpochs_NoDuplicates(t *testing.T) {
	states := map[domain.Epoch]epochState{}
	for e := domain.Epoch(1); e < 50; e++ {
		states[e] = epochState{info: bet(1, false), claimable: true}
	}
	r := &mockReader{states: states}

	got, err := claims.NewResolver(r, 10).GetClaimableEpochs(context.Background(), 50, account)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

// safeReader es mockReader con mutex, para el pool de workers.
type safeReader struct {
	mu sync.Mutex
	mockReader
}

func (m *safeReader) BetInfo(ctx context.Context, e domain.Epoch, a common.Address) (domain.BetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mockReader.BetInfo(ctx, e, a)
}

func TestGetClaimableEpochs_ConcurrentKeepsOrder(t *testing.T) {
	r := &safeReader{mockReader: mockReader{states: map[domain.Epoch]epochState{
		96:  {info: bet(10, false), claimable: true},
		97:  {info: bet(10, true), claimable: true},
		98:  {err: errors.New("rpc down")},
		99:  {info: bet(10, false), refundable: true},
		100: {info: bet(10, false), claimable: true},
	}}}

	res := claims.NewResolver(r, 5)
	res.SetWorkers(5)

	got, err := res.GetClaimableEpochs(context.Background(), 101, account)
	require.NoError(t, err)
	assert.Equal(t, []domain.Epoch{96, 99, 100}, got)
	assert.ElementsMatch(t, []domain.Epoch{96, 97, 98, 99, 100}, r.calls)
}

func TestGetClaimableEpochs_ConcurrentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &safeReader{mockReader: mockReader{states: map[domain.Epoch]epochState{}}}

	res := claims.NewResolver(r, 3)
	res.SetWorkers(3)

	_, err := res.GetClaimableEpochs(ctx, 10, account)
	assert.ErrorIs(t, err, context.Canceled)
}
