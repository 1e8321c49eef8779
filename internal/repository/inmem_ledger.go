package repository

import (
	"fmt"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
)

// InMemoryLedger keeps trades in memory. Used for development runs
// without a database and as the ledger in tests.
type InMemoryLedger struct {
	mu     sync.RWMutex
	trades map[int64]*domain.Trade
	nextID int64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		trades: make(map[int64]*domain.Trade),
		nextID: 1,
	}
}

func (r *InMemoryLedger) RecordEntry(trade *domain.Trade) (int64, error) {
	if trade == nil {
		return 0, fmt.Errorf("nil trade")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *trade
	stored.ID = r.nextID
	stored.Status = domain.TradeStatusOpen
	if stored.EntryTime.IsZero() {
		stored.EntryTime = time.Now()
	}
	r.trades[stored.ID] = &stored
	r.nextID++
	return stored.ID, nil
}

func (r *InMemoryLedger) RecordExit(id int64, exitPrice, profitRate float64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trade, ok := r.trades[id]
	if !ok {
		return fmt.Errorf("trade %d not found", id)
	}

	now := time.Now()
	isProfitable := profitRate > domain.WinThreshold
	profitClass := domain.ProfitClassOf(profitRate)

	trade.Status = domain.TradeStatusClosed
	trade.ExitTime = &now
	trade.ExitPrice = &exitPrice
	trade.ProfitRate = &profitRate
	trade.IsProfitable = &isProfitable
	trade.ProfitClass = &profitClass
	trade.ExitReason = reason
	return nil
}

func (r *InMemoryLedger) OpenTrades() ([]*domain.Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]*domain.Trade, 0)
	for _, t := range r.trades {
		if t.Status == domain.TradeStatusOpen {
			copied := *t
			open = append(open, &copied)
		}
	}
	return open, nil
}

func (r *InMemoryLedger) Statistics() (*domain.TradeStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.TradeStatistics{}
	var profitSum, lossSum float64
	var profits, losses int

	for _, t := range r.trades {
		if t.Status != domain.TradeStatusClosed || t.ProfitRate == nil {
			continue
		}
		stats.TotalTrades++
		if t.IsProfitable != nil && *t.IsProfitable {
			stats.Wins++
		}
		if *t.ProfitRate > 0 {
			profitSum += *t.ProfitRate
			profits++
		} else if *t.ProfitRate < 0 {
			lossSum += -*t.ProfitRate
			losses++
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades)
	}
	if profits > 0 {
		stats.AvgProfit = profitSum / float64(profits)
	}
	if losses > 0 {
		stats.AvgLoss = lossSum / float64(losses)
	}
	return stats, nil
}

func (r *InMemoryLedger) TickerStats(ticker string) (*domain.TickerStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.TickerStats{}
	wins := 0
	for _, t := range r.trades {
		if t.Ticker != ticker || t.Status != domain.TradeStatusClosed {
			continue
		}
		stats.Trades++
		if t.IsProfitable != nil && *t.IsProfitable {
			wins++
		}
	}
	if stats.Trades > 0 {
		stats.WinRate = float64(wins) / float64(stats.Trades)
	}
	return stats, nil
}

var _ domain.TradeLedger = (*InMemoryLedger)(nil)
