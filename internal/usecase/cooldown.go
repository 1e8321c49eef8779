package usecase

import (
	"log"
	"sync"
	"time"
)

// failedBuyTTL is how long a ticker stays blocked after a rejected buy order.
const failedBuyTTL = time.Minute

// SellCooldown records why and at what price a position was closed,
// so the gate can decide when re-entry becomes reasonable again.
type SellCooldown struct {
	ExitPrice  float64
	Profitable bool
}

// CooldownGate blocks re-entries after sells and after failed buy orders.
// Sell cooldowns release on price movement, failed-buy cooldowns on time.
type CooldownGate struct {
	mu             sync.Mutex
	sold           map[string]SellCooldown
	failedBuys     map[string]time.Time
	rebuyThreshold float64
}

func NewCooldownGate(rebuyThreshold float64) *CooldownGate {
	return &CooldownGate{
		sold:           make(map[string]SellCooldown),
		failedBuys:     make(map[string]time.Time),
		rebuyThreshold: rebuyThreshold,
	}
}

// RegisterSell puts a ticker into sell cooldown after an exit.
func (g *CooldownGate) RegisterSell(ticker string, exitPrice float64, profitable bool) {
	g.mu.Lock()
	g.sold[ticker] = SellCooldown{ExitPrice: exitPrice, Profitable: profitable}
	g.mu.Unlock()
}

// RegisterFailedBuy puts a ticker into the short failed-buy cooldown.
func (g *CooldownGate) RegisterFailedBuy(ticker string) {
	g.mu.Lock()
	g.failedBuys[ticker] = time.Now()
	g.mu.Unlock()
}

// FailedBuyActive reports whether the failed-buy cooldown still holds.
// Expired records are removed on read.
func (g *CooldownGate) FailedBuyActive(ticker string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	at, ok := g.failedBuys[ticker]
	if !ok {
		return false
	}
	if time.Since(at) >= failedBuyTTL {
		delete(g.failedBuys, ticker)
		log.Printf("🔓 [%s] Buy cooldown released", ticker)
		return false
	}
	return true
}

// SellBlocked checks the sell cooldown against the current price.
// When the release condition is met the record is removed and the
// ticker may be bought again in the same evaluation.
func (g *CooldownGate) SellBlocked(ticker string, price float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	cd, ok := g.sold[ticker]
	if !ok {
		return false
	}
	if !ShouldReleaseCooldown(cd, price, g.rebuyThreshold) {
		return true
	}

	delete(g.sold, ticker)
	if cd.Profitable {
		log.Printf("✅ [%s] Profit cooldown released, price dropped below %.0f", ticker, cd.ExitPrice*(1-g.rebuyThreshold))
	} else {
		log.Printf("✅ [%s] Loss cooldown released, price recovered above %.0f", ticker, cd.ExitPrice*(1+g.rebuyThreshold))
	}
	return false
}

// InSellCooldown reports whether a sell cooldown record exists,
// without evaluating the release condition.
func (g *CooldownGate) InSellCooldown(ticker string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sold[ticker]
	return ok
}

// ActiveSellCooldowns returns a snapshot of the sell cooldown map.
func (g *CooldownGate) ActiveSellCooldowns() map[string]SellCooldown {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]SellCooldown, len(g.sold))
	for k, v := range g.sold {
		out[k] = v
	}
	return out
}

// ShouldReleaseCooldown is the pure release rule. Profit exits release once
// the price has fallen rebuyThreshold below the exit, loss exits once it has
// recovered rebuyThreshold above the exit. Exactly at the boundary the
// cooldown releases.
func ShouldReleaseCooldown(cd SellCooldown, price, rebuyThreshold float64) bool {
	if cd.Profitable {
		return price <= cd.ExitPrice*(1-rebuyThreshold)
	}
	return price >= cd.ExitPrice*(1+rebuyThreshold)
}
