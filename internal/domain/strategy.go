package domain

// Strategy selects which pool the bot bets on. Chosen once at startup.
type Strategy int

const (
	// StrategyAgainst bets on the smaller pool (contrarian).
	StrategyAgainst Strategy = iota
	// StrategyWith bets on the larger pool (momentum).
	StrategyWith
)

func (s Strategy) String() string {
	switch s {
	case StrategyAgainst:
		return "against"
	case StrategyWith:
		return "with"
	default:
		return "unknown"
	}
}
