package usecase

import (
	"sync"
)

// Watchlist is the set of tickers the engine evaluates for entries.
type Watchlist struct {
	mu      sync.RWMutex
	tickers map[string]struct{}
	order   []string
}

func NewWatchlist(initial []string) *Watchlist {
	w := &Watchlist{tickers: make(map[string]struct{})}
	for _, t := range initial {
		w.Add(t)
	}
	return w
}

// Add inserts a ticker, preserving insertion order. No-op if present.
func (w *Watchlist) Add(ticker string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tickers[ticker]; ok {
		return false
	}
	w.tickers[ticker] = struct{}{}
	w.order = append(w.order, ticker)
	return true
}

func (w *Watchlist) Remove(ticker string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tickers[ticker]; !ok {
		return
	}
	delete(w.tickers, ticker)
	for i, t := range w.order {
		if t == ticker {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *Watchlist) Has(ticker string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.tickers[ticker]
	return ok
}

func (w *Watchlist) List() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}
