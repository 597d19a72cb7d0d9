package position

import "github.com/twbeatles/upbit-autotrader/internal/strategy"

// BetAmount returns the KRW to commit to a new entry, applying the
// anti-martingale streak adjustment: shrink after a losing streak, grow
// after a winning one, never beyond max_bet_ratio of the balance.
func BetAmount(balance float64, winStreak, lossStreak int, p strategy.Parameters) float64 {
	amount := balance * p.BetRatio / 100
	if p.UseDynamicSizing {
		switch {
		case lossStreak >= p.LossStreakThreshold:
			amount *= p.LossSizeFactor
		case winStreak >= p.WinStreakThreshold:
			amount *= p.WinSizeFactor
		}
	}
	if limit := balance * p.MaxBetRatio / 100; p.MaxBetRatio > 0 && amount > limit {
		amount = limit
	}
	if amount > balance {
		amount = balance
	}
	return amount
}
