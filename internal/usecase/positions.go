package usecase

import (
	"sync"

	"tradebot-backend/internal/domain"
)

// PositionStore tracks open positions keyed by ticker. At most one
// position per ticker.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position
}

func NewPositionStore() *PositionStore {
	return &PositionStore{
		positions: make(map[string]*domain.Position),
	}
}

func (s *PositionStore) Get(ticker string) (*domain.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[ticker]
	if !ok {
		return nil, false
	}
	copied := *p
	return &copied, true
}

func (s *PositionStore) Has(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.positions[ticker]
	return ok
}

// Set stores or replaces the position for its ticker.
func (s *PositionStore) Set(p *domain.Position) {
	s.mu.Lock()
	copied := *p
	s.positions[p.Ticker] = &copied
	s.mu.Unlock()
}

func (s *PositionStore) Delete(ticker string) {
	s.mu.Lock()
	delete(s.positions, ticker)
	s.mu.Unlock()
}

// UpdatePeak raises the stored trailing peak if price exceeds it.
func (s *PositionStore) UpdatePeak(ticker string, price float64) {
	s.mu.Lock()
	if p, ok := s.positions[ticker]; ok && price > p.PeakPrice {
		p.PeakPrice = price
	}
	s.mu.Unlock()
}

// SetAmount overwrites the held amount, used when re-syncing against
// exchange balances before a sell.
func (s *PositionStore) SetAmount(ticker string, amount float64) {
	s.mu.Lock()
	if p, ok := s.positions[ticker]; ok {
		p.Amount = amount
	}
	s.mu.Unlock()
}

func (s *PositionStore) Tickers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.positions))
	for t := range s.positions {
		out = append(out, t)
	}
	return out
}

func (s *PositionStore) List() []*domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		copied := *p
		out = append(out, &copied)
	}
	return out
}

func (s *PositionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}
