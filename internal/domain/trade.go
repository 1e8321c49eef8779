package domain

import "time"

// Trade statuses in the ledger.
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Profit class bounds used when labeling closed trades.
const (
	ProfitClassUpper = 0.005  // above +0.5% -> ClassProfit
	ProfitClassLower = -0.005 // below -0.5% -> ClassLoss
	WinThreshold     = 0.001  // profit rate above fees counting as a win
)

// Trade is a ledger row covering one entry and, once closed, its exit.
type Trade struct {
	ID           int64          `json:"id"`
	Ticker       string         `json:"ticker"`
	EntryTime    time.Time      `json:"entryTime"`
	EntryPrice   float64        `json:"entryPrice"`
	Amount       float64        `json:"amount"`
	Confidence   float64        `json:"confidence"`
	Features     *FeatureVector `json:"features,omitempty"`
	Status       string         `json:"status"`
	ExitTime     *time.Time     `json:"exitTime,omitempty"`
	ExitPrice    *float64       `json:"exitPrice,omitempty"`
	ProfitRate   *float64       `json:"profitRate,omitempty"`
	IsProfitable *bool          `json:"isProfitable,omitempty"`
	ProfitClass  *int           `json:"profitClass,omitempty"`
	ExitReason   string         `json:"exitReason,omitempty"`
}

// TradeStatistics aggregates closed trades for sizing and status reporting.
type TradeStatistics struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"`
	AvgProfit   float64 `json:"avgProfit"` // mean profit rate of winning trades
	AvgLoss     float64 `json:"avgLoss"`   // mean absolute loss rate of losing trades
}

// TickerStats is the per-market closed-trade summary used by the scanner.
type TickerStats struct {
	Trades  int     `json:"trades"`
	WinRate float64 `json:"winRate"`
}

// TradeLedger records entries and exits and answers aggregate queries.
type TradeLedger interface {
	RecordEntry(trade *Trade) (int64, error)
	RecordExit(id int64, exitPrice, profitRate float64, reason string) error
	OpenTrades() ([]*Trade, error)
	Statistics() (*TradeStatistics, error)
	TickerStats(ticker string) (*TickerStats, error)
}

// ProfitClassOf labels a closed trade's profit rate.
func ProfitClassOf(profitRate float64) int {
	switch {
	case profitRate > ProfitClassUpper:
		return ClassProfit
	case profitRate < ProfitClassLower:
		return ClassLoss
	default:
		return ClassNeutral
	}
}
