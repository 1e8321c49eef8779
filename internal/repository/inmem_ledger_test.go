package repository

import (
	"testing"

	"tradebot-backend/internal/domain"
)

func TestInMemoryLedgerLifecycle(t *testing.T) {
	r := NewInMemoryLedger()

	id1, err := r.RecordEntry(&domain.Trade{Ticker: "XRP", EntryPrice: 1000, Amount: 10, Confidence: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := r.RecordEntry(&domain.Trade{Ticker: "DOGE", EntryPrice: 250, Amount: 40, Confidence: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatalf("ids must be unique, both %d", id1)
	}

	open, err := r.OpenTrades()
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 {
		t.Fatalf("open trades = %d, want 2", len(open))
	}

	if err := r.RecordExit(id1, 1025, 0.025, "Target Profit"); err != nil {
		t.Fatal(err)
	}

	open, _ = r.OpenTrades()
	if len(open) != 1 || open[0].Ticker != "DOGE" {
		t.Fatalf("open after exit = %v, want just DOGE", open)
	}

	if err := r.RecordExit(99, 1, 0, "x"); err == nil {
		t.Error("exiting an unknown trade must fail")
	}
}

func TestInMemoryLedgerExitLabels(t *testing.T) {
	tests := []struct {
		name           string
		profitRate     float64
		wantProfitable bool
		wantClass      int
	}{
		{"clear win", 0.025, true, domain.ClassProfit},
		{"tiny win below fee threshold", 0.0005, false, domain.ClassNeutral},
		{"flat", 0, false, domain.ClassNeutral},
		{"clear loss", -0.03, false, domain.ClassLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewInMemoryLedger()
			id, _ := r.RecordEntry(&domain.Trade{Ticker: "XRP", EntryPrice: 1000})
			if err := r.RecordExit(id, 1000*(1+tt.profitRate), tt.profitRate, "test"); err != nil {
				t.Fatal(err)
			}

			r.mu.RLock()
			trade := r.trades[id]
			r.mu.RUnlock()

			if trade.Status != domain.TradeStatusClosed {
				t.Errorf("status = %q, want closed", trade.Status)
			}
			if *trade.IsProfitable != tt.wantProfitable {
				t.Errorf("isProfitable = %v, want %v", *trade.IsProfitable, tt.wantProfitable)
			}
			if *trade.ProfitClass != tt.wantClass {
				t.Errorf("profitClass = %d, want %d", *trade.ProfitClass, tt.wantClass)
			}
		})
	}
}

func TestInMemoryLedgerStatistics(t *testing.T) {
	r := NewInMemoryLedger()

	closeTrade := func(ticker string, rate float64) {
		id, _ := r.RecordEntry(&domain.Trade{Ticker: ticker, EntryPrice: 1000})
		if err := r.RecordExit(id, 1000*(1+rate), rate, "test"); err != nil {
			t.Fatal(err)
		}
	}

	closeTrade("XRP", 0.02)
	closeTrade("XRP", 0.04)
	closeTrade("XRP", -0.02)
	closeTrade("DOGE", -0.01)
	// An open trade must not count.
	if _, err := r.RecordEntry(&domain.Trade{Ticker: "XRP", EntryPrice: 1000}); err != nil {
		t.Fatal(err)
	}

	stats, err := r.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTrades != 4 {
		t.Errorf("total = %d, want 4", stats.TotalTrades)
	}
	if stats.Wins != 2 {
		t.Errorf("wins = %d, want 2", stats.Wins)
	}
	if stats.WinRate != 0.5 {
		t.Errorf("win rate = %v, want 0.5", stats.WinRate)
	}
	if stats.AvgProfit != 0.03 {
		t.Errorf("avg profit = %v, want 0.03", stats.AvgProfit)
	}
	if stats.AvgLoss != 0.015 {
		t.Errorf("avg loss = %v, want 0.015", stats.AvgLoss)
	}

	xrp, err := r.TickerStats("XRP")
	if err != nil {
		t.Fatal(err)
	}
	if xrp.Trades != 3 {
		t.Errorf("XRP trades = %d, want 3 (open trade excluded)", xrp.Trades)
	}
	if want := 2.0 / 3.0; xrp.WinRate != want {
		t.Errorf("XRP win rate = %v, want %v", xrp.WinRate, want)
	}

	none, err := r.TickerStats("SHIB")
	if err != nil {
		t.Fatal(err)
	}
	if none.Trades != 0 || none.WinRate != 0 {
		t.Errorf("unknown ticker stats = %+v, want zeros", none)
	}
}
