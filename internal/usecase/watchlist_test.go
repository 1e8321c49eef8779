package usecase

import (
	"testing"

	"tradebot-backend/internal/domain"
)

func TestWatchlistOrderAndDedup(t *testing.T) {
	w := NewWatchlist([]string{"BTC", "XRP"})

	if !w.Add("DOGE") {
		t.Error("first add should report true")
	}
	if w.Add("XRP") {
		t.Error("duplicate add should report false")
	}
	if got := w.List(); len(got) != 3 || got[0] != "BTC" || got[1] != "XRP" || got[2] != "DOGE" {
		t.Errorf("list = %v, want insertion order BTC XRP DOGE", got)
	}

	w.Remove("XRP")
	if w.Has("XRP") {
		t.Error("removed ticker still present")
	}
	if got := w.List(); len(got) != 2 || got[0] != "BTC" || got[1] != "DOGE" {
		t.Errorf("list after remove = %v", got)
	}

	// Removing a missing ticker is a no-op.
	w.Remove("XRP")
	if w.Len() != 2 {
		t.Errorf("len = %d, want 2", w.Len())
	}
}

func TestPositionStoreCopies(t *testing.T) {
	s := NewPositionStore()
	s.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 50, PeakPrice: 1000})

	got, ok := s.Get("XRP")
	if !ok {
		t.Fatal("position missing")
	}
	// Mutating the returned copy must not touch the store.
	got.Amount = 999
	again, _ := s.Get("XRP")
	if again.Amount != 50 {
		t.Errorf("store amount = %v, returned copy leaked", again.Amount)
	}
}

func TestPositionStorePeakOnlyRises(t *testing.T) {
	s := NewPositionStore()
	s.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, PeakPrice: 1000})

	s.UpdatePeak("XRP", 1100)
	if p, _ := s.Get("XRP"); p.PeakPrice != 1100 {
		t.Fatalf("peak = %v, want 1100", p.PeakPrice)
	}
	s.UpdatePeak("XRP", 1050)
	if p, _ := s.Get("XRP"); p.PeakPrice != 1100 {
		t.Errorf("peak = %v, a lower price must not reduce it", p.PeakPrice)
	}
}

func TestPositionStoreSetAmount(t *testing.T) {
	s := NewPositionStore()
	s.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 50})

	s.SetAmount("XRP", 45)
	if p, _ := s.Get("XRP"); p.Amount != 45 {
		t.Errorf("amount = %v, want 45", p.Amount)
	}

	s.Delete("XRP")
	if s.Has("XRP") || s.Len() != 0 {
		t.Error("delete left state behind")
	}
	// Idempotent delete.
	s.Delete("XRP")
}
