package usecase

import (
	"log"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
)

// drawdownCheckInterval rate-limits the equity calculation, which costs
// several exchange calls per run.
const drawdownCheckInterval = 30 * time.Second

// RiskManager watches total equity against its running peak and signals
// a breach when the drawdown limit is hit.
type RiskManager struct {
	gateway     domain.MarketGateway
	maxDrawdown float64

	mu        sync.Mutex
	peak      float64
	lastCheck time.Time
}

func NewRiskManager(gateway domain.MarketGateway, maxDrawdown float64) *RiskManager {
	return &RiskManager{gateway: gateway, maxDrawdown: maxDrawdown}
}

// Check computes total equity (cash plus holdings at current prices,
// average cost as fallback), updates the peak, and reports whether the
// drawdown limit is breached. Calls within the rate-limit window return
// immediately with no breach.
func (r *RiskManager) Check() (breached bool, drawdown float64, err error) {
	r.mu.Lock()
	if time.Since(r.lastCheck) < drawdownCheckInterval {
		r.mu.Unlock()
		return false, 0, nil
	}
	r.lastCheck = time.Now()
	r.mu.Unlock()

	equity, err := r.totalEquity()
	if err != nil {
		return false, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if equity > r.peak {
		r.peak = equity
	}
	drawdown = Drawdown(r.peak, equity)

	if drawdown >= r.maxDrawdown {
		log.Printf("🛑 MAX DRAWDOWN LIMIT REACHED: -%.2f%% (peak %.0f, equity %.0f)",
			drawdown*100, r.peak, equity)
		return true, drawdown, nil
	}
	return false, drawdown, nil
}

// Rearm resets the peak and rate limiter. Called on engine start so a
// stopped engine does not inherit a stale peak.
func (r *RiskManager) Rearm() {
	r.mu.Lock()
	r.peak = 0
	r.lastCheck = time.Time{}
	r.mu.Unlock()
}

// Peak returns the current equity peak.
func (r *RiskManager) Peak() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

func (r *RiskManager) totalEquity() (float64, error) {
	cash, err := r.gateway.GetBalance()
	if err != nil {
		return 0, err
	}

	holdings, err := r.gateway.GetHoldings()
	if err != nil {
		return 0, err
	}

	equity := cash
	for _, h := range holdings {
		price, err := r.gateway.GetPrice(h.Ticker)
		if err != nil || price <= 0 {
			price = h.AvgBuyPrice
		}
		equity += h.Amount * price
	}
	return equity, nil
}

// Drawdown is the fractional distance below the peak, 0 when at or
// above it or when no peak exists yet.
func Drawdown(peak, equity float64) float64 {
	if peak <= 0 || equity >= peak {
		return 0
	}
	return (peak - equity) / peak
}
