package upbit

import (
	"tradebot-backend/internal/domain"
)

// Gateway implements domain.MarketGateway on top of the REST clients,
// serving prices from the stream-fed cache when fresh.
type Gateway struct {
	client  *Client
	trading *TradingClient
	cache   *PriceCache
}

var _ domain.MarketGateway = (*Gateway)(nil)

func NewGateway(client *Client, trading *TradingClient, cache *PriceCache) *Gateway {
	return &Gateway{client: client, trading: trading, cache: cache}
}

func (g *Gateway) GetPrice(ticker string) (float64, error) {
	if price, ok := g.cache.Get(ticker); ok {
		return price, nil
	}
	price, err := g.client.GetPrice(ticker)
	if err != nil {
		return 0, err
	}
	g.cache.Set(ticker, price)
	return price, nil
}

func (g *Gateway) GetCandles(ticker string, count int) ([]domain.Candle, error) {
	return g.client.GetCandles(ticker, count)
}

func (g *Gateway) GetBestBid(ticker string) (float64, error) {
	return g.client.GetBestBid(ticker)
}

func (g *Gateway) GetTickers() ([]domain.TickerQuote, error) {
	return g.client.GetTickers()
}

func (g *Gateway) GetBalance() (float64, error) {
	return g.trading.GetBalance()
}

func (g *Gateway) GetHoldings() ([]domain.Holding, error) {
	return g.trading.GetHoldings()
}

func (g *Gateway) BuyMarket(ticker string, notional float64) (*domain.OrderResult, error) {
	return g.trading.BuyMarket(ticker, notional)
}

func (g *Gateway) SellMarket(ticker string, amount float64) (*domain.OrderResult, error) {
	return g.trading.SellMarket(ticker, amount)
}
