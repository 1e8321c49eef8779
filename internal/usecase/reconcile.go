package usecase

import (
	"fmt"
	"log"
	"time"

	"tradebot-backend/internal/domain"
)

// Reconciler aligns the in-memory position store with what the exchange
// actually holds. Exchange holdings are authoritative in both directions.
type Reconciler struct {
	gateway   domain.MarketGateway
	ledger    domain.TradeLedger
	positions *PositionStore
	watchlist *Watchlist
}

func NewReconciler(gateway domain.MarketGateway, ledger domain.TradeLedger,
	positions *PositionStore, watchlist *Watchlist) *Reconciler {
	return &Reconciler{
		gateway:   gateway,
		ledger:    ledger,
		positions: positions,
		watchlist: watchlist,
	}
}

// Recover rebuilds positions from exchange holdings at startup. Entry
// time and ledger id come from open trades in the ledger when a match
// exists, otherwise the position starts fresh from the average cost.
// Idempotent: holdings already tracked are left untouched.
func (r *Reconciler) Recover() error {
	log.Println("🔄 Syncing positions from exchange...")

	openTrades, err := r.ledger.OpenTrades()
	if err != nil {
		log.Printf("⚠️ Could not load open trades: %v", err)
		openTrades = nil
	}
	byTicker := make(map[string]*domain.Trade, len(openTrades))
	for _, t := range openTrades {
		if _, ok := byTicker[t.Ticker]; !ok {
			byTicker[t.Ticker] = t
		}
	}

	holdings, err := r.gateway.GetHoldings()
	if err != nil {
		return fmt.Errorf("position recovery failed: %w", err)
	}

	for _, h := range holdings {
		if r.positions.Has(h.Ticker) {
			continue
		}

		entryPrice := h.AvgBuyPrice
		if entryPrice <= 0 {
			entryPrice, _ = r.gateway.GetPrice(h.Ticker)
		}
		if entryPrice <= 0 {
			continue
		}

		pos := &domain.Position{
			Ticker:    h.Ticker,
			BuyPrice:  entryPrice,
			Amount:    h.Amount,
			EntryTime: time.Now(),
			PeakPrice: entryPrice,
		}
		if trade, ok := byTicker[h.Ticker]; ok {
			pos.TradeID = trade.ID
			pos.EntryTime = trade.EntryTime
			log.Printf("♻️ Recovered position: %s (amt %.4f, avg %.0f, entry %s)",
				h.Ticker, h.Amount, entryPrice, trade.EntryTime.Format(time.RFC3339))
		} else {
			log.Printf("♻️ New position from holdings: %s (amt %.4f, avg %.0f)", h.Ticker, h.Amount, entryPrice)
		}
		r.positions.Set(pos)

		if r.watchlist.Add(h.Ticker) {
			log.Printf("➕ Auto-added to watchlist: %s", h.Ticker)
		}
	}

	log.Printf("✓ Position recovery complete, managing %d positions", r.positions.Len())
	return nil
}

// Sync removes positions whose holdings vanished, detecting manual
// sells between ticks.
func (r *Reconciler) Sync() error {
	holdings, err := r.gateway.GetHoldings()
	if err != nil {
		return err
	}

	held := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		held[h.Ticker] = struct{}{}
	}

	for _, ticker := range r.positions.Tickers() {
		if _, ok := held[ticker]; ok {
			continue
		}
		r.positions.Delete(ticker)
		r.watchlist.Remove(ticker)
		log.Printf("🗑️ Position removed: %s (sold externally)", ticker)
	}
	return nil
}
