package balance_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/alejandrodnm/predbot/internal/application/balance"
	"github.com/alejandrodnm/predbot/internal/ports"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWallet struct {
	balance *big.Int
	err     error
}

func (w *mockWallet) Address() common.Address { return common.HexToAddress("0x01") }

func (w *mockWallet) Balance(context.Context) (*big.Int, error) { return w.balance, w.err }

func (w *mockWallet) Transfer(context.Context, common.Address, *big.Int) (ports.PendingTx, error) {
	return nil, errors.New("not used")
}

type mockAlerter struct {
	calls int
}

func (a *mockAlerter) InsufficientFunds(_, _ *big.Int) { a.calls++ }

func TestMonitor_Check_Enough(t *testing.T) {
	a := &mockAlerter{}
	m := balance.NewMonitor(&mockWallet{balance: big.NewInt(100)}, big.NewInt(100), a)

	ok, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, a.calls)
}

func TestMonitor_Check_BelowBetAmountWarns(t *testing.T) {
	a := &mockAlerter{}
	m := balance.NewMonitor(&mockWallet{balance: big.NewInt(99)}, big.NewInt(100), a)

	ok, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, a.calls)
}

func TestMonitor_Check_ReadError(t *testing.T) {
	m := balance.NewMonitor(&mockWallet{err: errors.New("rpc down")}, big.NewInt(1), nil)

	_, err := m.Check(context.Background())
	assert.Error(t, err)
}

func TestMonitor_Start_InvalidSpec(t *testing.T) {
	m := balance.NewMonitor(&mockWallet{balance: big.NewInt(1)}, big.NewInt(1), nil)
	assert.Error(t, m.Start(context.Background(), "not a cron spec"))
	m.Stop()
}

func TestMonitor_Start_EmptySpecDisabled(t *testing.T) {
	m := balance.NewMonitor(&mockWallet{balance: big.NewInt(1)}, big.NewInt(1), nil)
	require.NoError(t, m.Start(context.Background(), ""))
	m.Stop()
}
