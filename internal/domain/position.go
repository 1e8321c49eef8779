package domain

import "time"

// Position represents an open spot position tracked by the engine.
type Position struct {
	Ticker    string    `json:"ticker"`
	BuyPrice  float64   `json:"buyPrice"`
	Amount    float64   `json:"amount"` // base asset quantity
	EntryTime time.Time `json:"entryTime"`
	PeakPrice float64   `json:"peakPrice"` // highest price seen since entry, for trailing stop
	TradeID   int64     `json:"tradeId"`   // ledger row backing this position, 0 if recovered without one
}

// HoldTime returns how long the position has been open.
func (p *Position) HoldTime(now time.Time) time.Duration {
	return now.Sub(p.EntryTime)
}
