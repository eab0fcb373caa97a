package strategy_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/domain/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(n int64) *big.Int { return big.NewInt(n) }

func TestDecideSide_AgainstPicksSmallerPool(t *testing.T) {
	// bull=100, bear=50 → bear
	assert.Equal(t, domain.SideBear, strategy.DecideSide(wei(100), wei(50), domain.StrategyAgainst))
	assert.Equal(t, domain.SideBull, strategy.DecideSide(wei(50), wei(100), domain.StrategyAgainst))
}

func TestDecideSide_WithPicksLargerPool(t *testing.T) {
	// bull=100, bear=50 → bull
	assert.Equal(t, domain.SideBull, strategy.DecideSide(wei(100), wei(50), domain.StrategyWith))
	assert.Equal(t, domain.SideBear, strategy.DecideSide(wei(50), wei(100), domain.StrategyWith))
}

func TestDecideSide_Property(t *testing.T) {
	amounts := []int64{0, 1, 2, 7, 50, 100, 1_000_000}
	for _, bull := range amounts {
		for _, bear := range amounts {
			if bull == bear {
				continue
			}
			against := strategy.DecideSide(wei(bull), wei(bear), domain.StrategyAgainst)
			with := strategy.DecideSide(wei(bull), wei(bear), domain.StrategyWith)

			smaller, larger := domain.SideBear, domain.SideBull
			if bull < bear {
				smaller, larger = domain.SideBull, domain.SideBear
			}
			assert.Equal(t, smaller, against, "bull=%d bear=%d", bull, bear)
			assert.Equal(t, larger, with, "bull=%d bear=%d", bull, bear)
		}
	}
}

func TestDecideSide_TieIsBear(t *testing.T) {
	for _, n := range []int64{0, 1, 100} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, domain.SideBear, strategy.DecideSide(wei(n), wei(n), domain.StrategyAgainst))
			assert.Equal(t, domain.SideBear, strategy.DecideSide(wei(n), wei(n), domain.StrategyWith))
		}
	}
}

func TestDecideSide_NilIsZero(t *testing.T) {
	assert.Equal(t, domain.SideBear, strategy.DecideSide(nil, nil, domain.StrategyAgainst))
	assert.Equal(t, domain.SideBull, strategy.DecideSide(nil, wei(5), domain.StrategyAgainst))
}

func TestNew_ReturnsEvaluator(t *testing.T) {
	assert.Equal(t, domain.StrategyAgainst, strategy.New(domain.StrategyAgainst).Strategy())
	assert.Equal(t, domain.StrategyWith, strategy.New(domain.StrategyWith).Strategy())
}

func TestParse(t *testing.T) {
	cases := map[string]domain.Strategy{
		"":          domain.StrategyAgainst,
		"against":   domain.StrategyAgainst,
		"--against": domain.StrategyAgainst,
		"With":      domain.StrategyWith,
		"--with":    domain.StrategyWith,
	}
	for in, want := range cases {
		got, err := strategy.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := strategy.Parse("momentum")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidStrategy))
	assert.Contains(t, err.Error(), "momentum")
}
