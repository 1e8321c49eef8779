package usecase

import (
	"errors"

	"tradebot-backend/internal/domain"
)

// fakeGateway is a canned-response exchange used across the package tests.
type fakeGateway struct {
	prices   map[string]float64
	candles  map[string][]domain.Candle
	bids     map[string]float64
	quotes   []domain.TickerQuote
	balance  float64
	holdings []domain.Holding

	buyErr  error
	sellErr error
	buys    []string
	sells   []string

	sellAmounts []float64
}

var _ domain.MarketGateway = (*fakeGateway)(nil)

func (f *fakeGateway) GetPrice(ticker string) (float64, error) {
	p, ok := f.prices[ticker]
	if !ok {
		return 0, errors.New("no price for " + ticker)
	}
	return p, nil
}

func (f *fakeGateway) GetCandles(ticker string, count int) ([]domain.Candle, error) {
	c, ok := f.candles[ticker]
	if !ok {
		return nil, errors.New("no candles for " + ticker)
	}
	if len(c) > count {
		c = c[len(c)-count:]
	}
	return c, nil
}

func (f *fakeGateway) GetBestBid(ticker string) (float64, error) {
	if b, ok := f.bids[ticker]; ok {
		return b, nil
	}
	return f.prices[ticker], nil
}

func (f *fakeGateway) GetTickers() ([]domain.TickerQuote, error) {
	return f.quotes, nil
}

func (f *fakeGateway) GetBalance() (float64, error) {
	return f.balance, nil
}

func (f *fakeGateway) GetHoldings() ([]domain.Holding, error) {
	return f.holdings, nil
}

func (f *fakeGateway) BuyMarket(ticker string, notional float64) (*domain.OrderResult, error) {
	if f.buyErr != nil {
		return nil, f.buyErr
	}
	f.buys = append(f.buys, ticker)
	return &domain.OrderResult{Ticker: ticker, Side: "buy", Notional: notional}, nil
}

func (f *fakeGateway) SellMarket(ticker string, amount float64) (*domain.OrderResult, error) {
	if f.sellErr != nil {
		return nil, f.sellErr
	}
	f.sells = append(f.sells, ticker)
	f.sellAmounts = append(f.sellAmounts, amount)
	return &domain.OrderResult{Ticker: ticker, Side: "sell", Amount: amount}, nil
}

// flatCandles builds n identical candles, enough history for the
// indicator windows without any signal in it.
func flatCandles(n int, price, volume float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{Open: price, High: price, Low: price, Close: price, Volume: volume}
	}
	return out
}
