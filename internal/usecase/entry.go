package usecase

import (
	"tradebot-backend/internal/domain"
)

// Entry reasons, reported on buy decisions and recorded on the trade.
const (
	ReasonTechnicalValueBuy = "Technical Value Buy"
	ReasonAIOversold        = "AI+Oversold"
	ReasonHighConfidence    = "High Confidence"
	ReasonMomentumRecovery  = "Momentum Recovery"
)

// EntryParams are the tunables for entry evaluation.
type EntryParams struct {
	ConfidenceThreshold float64
	MinPriceFilter      float64
	MinVolumeFilter     float64 // 24h quote volume
	BaseTrendLimit      float64 // skip entries when the base market falls past this, e.g. -0.03
}

// EntryContext is everything the evaluator needs from the outside world.
// The engine assembles it, the evaluator stays a pure function so the
// same rules drive live trading and offline simulation.
type EntryContext struct {
	Ticker       string
	IsBaseTicker bool    // the base market itself skips the base trend guard
	BaseTrend    float64 // 10-bar fractional change of the base market
	Price        float64
	Volume24h    float64
	Features     *domain.FeatureVector
	Prediction   int
	Confidence   float64

	HasPosition   bool
	FailedCooldown bool // failed-buy cooldown still active
	SellCooldown   bool // sell cooldown present and not released
}

// EntryDecision is the evaluator verdict.
type EntryDecision struct {
	Buy        bool
	Reason     string
	Confidence float64 // confidence the trade is recorded with
}

// EvaluateEntry runs the entry rule table in order. The first guard that
// fails rejects; the first signal that fires buys. The strong technical
// override is gated behind the position and cooldown checks like any
// other buy.
func EvaluateEntry(p EntryParams, ctx EntryContext) EntryDecision {
	hold := EntryDecision{Confidence: ctx.Confidence}

	// 1. Base market trend guard: no altcoin entries into a falling market.
	if !ctx.IsBaseTicker && ctx.BaseTrend < p.BaseTrendLimit {
		return hold
	}

	// 2. Liquidity filters.
	if ctx.Price < p.MinPriceFilter {
		return hold
	}
	if ctx.Volume24h < p.MinVolumeFilter {
		return hold
	}

	// 3-5. Cooldowns and duplicate positions.
	if ctx.FailedCooldown || ctx.HasPosition || ctx.SellCooldown {
		return hold
	}

	f := ctx.Features
	if f == nil {
		return hold
	}

	// Trend filter: EMA golden cross, or at worst a mild 15-bar decline.
	trendUp := f.TrendUp() || f.PriceChange15m > -0.02

	// 6. Strong technical override: deep oversold turning up at the lower
	// band buys regardless of model output, recorded at neutral confidence.
	if f.RSI < 30 && f.RSIChange > 0 && f.BBPosition < 0.2 && trendUp {
		return EntryDecision{Buy: true, Reason: ReasonTechnicalValueBuy, Confidence: 0.5}
	}

	// 7. Composite signals.
	oversold := (f.RSI < 30 || f.BBPosition < 0.2) && trendUp
	momentum := f.RSI < 40 && f.RSIChange > 2
	volumeRising := f.VolumeTrend > 0.2

	switch {
	case ctx.Confidence > p.ConfidenceThreshold && oversold:
		return EntryDecision{Buy: true, Reason: ReasonAIOversold, Confidence: ctx.Confidence}
	case ctx.Confidence > 0.90 && trendUp:
		return EntryDecision{Buy: true, Reason: ReasonHighConfidence, Confidence: ctx.Confidence}
	case oversold && momentum && volumeRising && ctx.Confidence > 0.7:
		return EntryDecision{Buy: true, Reason: ReasonMomentumRecovery, Confidence: ctx.Confidence}
	}

	return hold
}
