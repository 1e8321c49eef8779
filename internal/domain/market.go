package domain

import "time"

// Candle represents a single OHLCV candle from the exchange.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// TickerQuote represents the 24h snapshot for a market.
type TickerQuote struct {
	Ticker       string  `json:"ticker"`
	Price        float64 `json:"price"`
	Volume24h    float64 `json:"volume24h"` // quote currency volume
	ChangeRate   float64 `json:"changeRate"`
	HighPrice24h float64 `json:"highPrice24h"`
	LowPrice24h  float64 `json:"lowPrice24h"`
}

// Holding represents an asset balance held on the exchange.
type Holding struct {
	Ticker      string  `json:"ticker"`
	Amount      float64 `json:"amount"`
	AvgBuyPrice float64 `json:"avgBuyPrice"`
}

// OrderResult is the fill summary returned by the exchange after a market order.
type OrderResult struct {
	OrderID  string  `json:"orderId"`
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"` // "buy", "sell"
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"` // base asset quantity
	Notional float64 `json:"notional"`
}

// MarketGateway is the exchange surface the engine trades through.
type MarketGateway interface {
	GetPrice(ticker string) (float64, error)
	GetCandles(ticker string, count int) ([]Candle, error)
	GetBestBid(ticker string) (float64, error)
	GetTickers() ([]TickerQuote, error)
	GetBalance() (float64, error)
	GetHoldings() ([]Holding, error)
	BuyMarket(ticker string, notional float64) (*OrderResult, error)
	SellMarket(ticker string, amount float64) (*OrderResult, error)
}
