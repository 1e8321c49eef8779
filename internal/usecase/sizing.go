package usecase

import (
	"log"

	"tradebot-backend/internal/domain"
)

// minKellyTrades is the closed-trade history Kelly sizing requires
// before the statistics are trusted.
const minKellyTrades = 30

// PositionSizer decides the quote-currency notional of each entry.
type PositionSizer struct {
	TradeAmount      float64
	MinOrderNotional float64
	MaxPositionShare float64 // balance fraction cap in dynamic mode
	UseDynamic       bool
}

// Size returns the notional to spend. Fixed mode returns the configured
// amount clamped to the exchange minimum. Dynamic mode sizes with
// half-Kelly, falling back to fixed on thin history.
func (s *PositionSizer) Size(stats *domain.TradeStatistics, balance, confidence float64) float64 {
	fixed := s.TradeAmount
	if fixed < s.MinOrderNotional {
		fixed = s.MinOrderNotional
	}

	if !s.UseDynamic {
		return fixed
	}
	if stats == nil || stats.TotalTrades < minKellyTrades {
		log.Printf("📊 Not enough trade history (%d/%d), using fixed amount", tradeCount(stats), minKellyTrades)
		return fixed
	}

	kelly := KellyFraction(stats.WinRate, stats.AvgProfit, stats.AvgLoss)
	optimal := balance * kelly * confidence

	maxAmount := s.TradeAmount
	if share := balance * s.MaxPositionShare; share < maxAmount {
		maxAmount = share
	}

	final := optimal
	if final > maxAmount {
		final = maxAmount
	}
	if final < s.MinOrderNotional {
		final = s.MinOrderNotional
	}

	log.Printf("💰 Position sizing: %.0f (kelly=%.1f%%, conf=%.1f%%, balance=%.0f)",
		final, kelly*100, confidence*100, balance)
	return final
}

// KellyFraction computes the half-Kelly damped betting fraction,
// clamped to [0, 0.25].
func KellyFraction(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss <= 0 {
		return 0
	}
	b := avgWin / avgLoss
	kelly := (winRate*b - (1 - winRate)) / b

	kelly *= 0.5
	if kelly < 0 {
		return 0
	}
	if kelly > 0.25 {
		return 0.25
	}
	return kelly
}

func tradeCount(stats *domain.TradeStatistics) int {
	if stats == nil {
		return 0
	}
	return stats.TotalTrades
}
