package strategy

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// Evaluator define el contrato para decidir el lado de una apuesta
// a partir del tamaño de los dos pools.
type Evaluator interface {
	// Decide returns the side to bet on. Equal pools always resolve to Bear.
	Decide(bullAmount, bearAmount *big.Int) domain.Side
	Strategy() domain.Strategy
}

// Against bets on the side with the strictly smaller pool.
type Against struct{}

func (Against) Decide(bull, bear *big.Int) domain.Side {
	if cmp(bull, bear) < 0 {
		return domain.SideBull
	}
	return domain.SideBear
}

func (Against) Strategy() domain.Strategy { return domain.StrategyAgainst }

// With bets on the side with the strictly larger pool.
type With struct{}

func (With) Decide(bull, bear *big.Int) domain.Side {
	if cmp(bull, bear) > 0 {
		return domain.SideBull
	}
	return domain.SideBear
}

func (With) Strategy() domain.Strategy { return domain.StrategyWith }

// New returns the evaluator for s. Unknown values fall back to Against.
func New(s domain.Strategy) Evaluator {
	if s == domain.StrategyWith {
		return With{}
	}
	return Against{}
}

// DecideSide is the functional form of New(s).Decide(bull, bear).
func DecideSide(bullAmount, bearAmount *big.Int, s domain.Strategy) domain.Side {
	return New(s).Decide(bullAmount, bearAmount)
}

// Parse maps a command-line value to a Strategy. Accepted: "against", "with",
// optionally prefixed with "--" (the flags the bot historically used).
// An empty value selects Against.
func Parse(arg string) (domain.Strategy, error) {
	v := strings.ToLower(strings.TrimSpace(arg))
	v = strings.TrimPrefix(v, "--")
	switch v {
	case "", "against":
		return domain.StrategyAgainst, nil
	case "with":
		return domain.StrategyWith, nil
	default:
		return domain.StrategyAgainst, fmt.Errorf("%w %q: use \"against\" or \"with\"", domain.ErrInvalidStrategy, arg)
	}
}

// cmp compares two amounts treating nil as zero.
func cmp(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}
