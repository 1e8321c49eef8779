package usecase

import (
	"fmt"

	"tradebot-backend/internal/domain"
)

// ExitParams are the tunables for exit evaluation.
type ExitParams struct {
	TargetProfit       float64
	StopLoss           float64 // positive fraction
	TrailingActivation float64
	TrailingDistance   float64
	FeeRate            float64
	UseNetProfit       bool
	UseDynamicTarget   bool
}

// ExitContext carries the market state for one open position.
type ExitContext struct {
	Position   *domain.Position
	Price      float64
	CandleOpen float64 // open of the current 1-minute candle, 0 if unknown
	ATR        float64
	BBPosition float64
	HasFeatures bool // ATR/BBPosition populated
}

// ExitDecision is the evaluator verdict. PeakPrice carries the updated
// trailing peak back to the caller whether or not a sell fires.
type ExitDecision struct {
	Sell       bool
	Reason     string
	ProfitRate float64
	PeakPrice  float64
}

// flashCrashLimit triggers the emergency exit on a drop vs the candle open.
const flashCrashLimit = -0.03

// EvaluateExit runs the exit rule table in strict priority order:
// flash crash, target profit, stop loss, trailing stop, upper band.
func EvaluateExit(p ExitParams, ctx ExitContext) ExitDecision {
	pos := ctx.Position

	profitRate := SimpleProfitRate(pos.BuyPrice, ctx.Price)
	if p.UseNetProfit {
		profitRate = NetProfitRate(pos.BuyPrice, ctx.Price, p.FeeRate)
	}

	target := p.TargetProfit
	if p.UseDynamicTarget && ctx.HasFeatures {
		target = DynamicTarget(ctx.ATR, ctx.Price)
	}

	peak := pos.PeakPrice
	if peak < pos.BuyPrice {
		peak = pos.BuyPrice
	}

	decision := ExitDecision{ProfitRate: profitRate, PeakPrice: peak}

	// 0. Flash crash beats everything, including a positive profit rate.
	if ctx.CandleOpen > 0 {
		drop := (ctx.Price - ctx.CandleOpen) / ctx.CandleOpen
		if drop <= flashCrashLimit {
			decision.Sell = true
			decision.Reason = fmt.Sprintf("Flash Crash (%.1f%%)", drop*100)
			return decision
		}
	}

	// 1. Target profit.
	if profitRate >= target {
		decision.Sell = true
		decision.Reason = fmt.Sprintf("Target Profit (%.1f%%)", target*100)
		return decision
	}

	// 2. Stop loss.
	if profitRate <= -p.StopLoss {
		decision.Sell = true
		decision.Reason = fmt.Sprintf("Stop Loss (-%.1f%%)", p.StopLoss*100)
		return decision
	}

	// 3. Trailing stop, once the activation profit has been reached.
	// The peak only ever rises.
	if profitRate >= p.TrailingActivation {
		if ctx.Price > peak {
			peak = ctx.Price
			decision.PeakPrice = peak
		}
		if ctx.Price < peak*(1-p.TrailingDistance) {
			peakProfit := (peak - pos.BuyPrice) / pos.BuyPrice
			decision.Sell = true
			decision.Reason = fmt.Sprintf("Trailing Stop (peak +%.1f%%)", peakProfit*100)
			return decision
		}
		return decision
	}

	// 4. Upper Bollinger band, a timing sell.
	if ctx.HasFeatures && ctx.BBPosition > 0.95 {
		decision.Sell = true
		decision.Reason = "Bollinger Band Upper"
		return decision
	}

	return decision
}

// SimpleProfitRate is the raw price return.
func SimpleProfitRate(entry, current float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (current - entry) / entry
}

// NetProfitRate is the return after taker fees on both sides.
func NetProfitRate(entry, current, feeRate float64) float64 {
	if entry <= 0 {
		return 0
	}
	buyCost := entry * (1 + feeRate)
	sellProceeds := current * (1 - feeRate)
	return (sellProceeds - buyCost) / buyCost
}

// DynamicTarget scales the profit target with volatility, floored at 1%.
func DynamicTarget(atr, price float64) float64 {
	if price <= 0 {
		return 0.01
	}
	target := 0.5 * atr / price
	if target < 0.01 {
		target = 0.01
	}
	return target
}
