package usecase

import (
	"tradebot-backend/internal/domain"
)

// CompositeScore grades a market 0-100 for the scanner:
// model confidence 0-40, technical strength 0-30, historical win
// rate 0-20, volume and volatility 0-10.
func CompositeScore(f *domain.FeatureVector, confidence float64, hist *domain.TickerStats) float64 {
	score := confidence * 40

	// Technical strength: oversold RSI, lower band proximity, MACD cross.
	sTech := 0.0
	if f.RSI < 30 {
		sTech += 10
	} else if f.RSI < 40 {
		sTech += 5
	}
	if f.BBPosition < 0.2 {
		sTech += 10
	} else if f.BBPosition < 0.3 {
		sTech += 5
	}
	if f.MACD > f.MACDSignal {
		sTech += 10
	}
	score += sTech

	score += HistoricalScore(hist)

	// Volume ratio and ATR-scaled volatility, 5 points each.
	volumeScore := f.VolumeRatio * 5
	if volumeScore > 5 {
		volumeScore = 5
	}
	volatilityScore := f.ATR / 100000 * 5
	if volatilityScore > 5 {
		volatilityScore = 5
	}
	score += volumeScore + volatilityScore

	if score > 100 {
		score = 100
	}
	return score
}

// HistoricalScore maps a ticker's closed-trade win rate to 0-20 points.
// No history scores the neutral 10.
func HistoricalScore(hist *domain.TickerStats) float64 {
	if hist == nil || hist.Trades == 0 {
		return 10
	}
	return hist.WinRate * 20
}

// ShouldRecommend decides whether a scanned market is worth adding to
// the watchlist: no predicted loss, confident model, strong composite
// score, and either an oversold setup or upward MACD momentum.
func ShouldRecommend(f *domain.FeatureVector, confidence float64, prediction int, score float64) bool {
	if prediction == domain.ClassLoss {
		return false
	}
	if confidence < 0.6 {
		return false
	}
	if score < 60 {
		return false
	}

	if f.RSI < 40 || f.BBPosition < 0.3 {
		return true
	}
	return f.MACD > f.MACDSignal
}
