package upbit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tradebot-backend/internal/domain"
)

const DefaultBaseURL = "https://api.upbit.com"

// Client handles public (unauthenticated) Upbit market data requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError captures structured error info returned by the exchange.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "upbit API error"
	}
	if e.Name != "" || e.Message != "" {
		return fmt.Sprintf("upbit API error %d (%s): %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("upbit API error %d: %s", e.StatusCode, e.Body)
}

func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Error.Name != "" || parsed.Error.Message != "") {
		return &APIError{StatusCode: statusCode, Name: parsed.Error.Name, Message: parsed.Error.Message, Body: string(body)}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

// MarketCode converts a bare ticker like "BTC" to the KRW market code "KRW-BTC".
func MarketCode(ticker string) string {
	return "KRW-" + ticker
}

// TickerFromMarket converts "KRW-BTC" back to "BTC".
func TickerFromMarket(market string) string {
	return strings.TrimPrefix(market, "KRW-")
}

type tickerResponse struct {
	Market             string  `json:"market"`
	TradePrice         float64 `json:"trade_price"`
	AccTradePrice24h   float64 `json:"acc_trade_price_24h"`
	SignedChangeRate   float64 `json:"signed_change_rate"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
}

// GetPrice returns the last traded price for a market.
func (c *Client) GetPrice(ticker string) (float64, error) {
	tickers, err := c.getTickerSnapshots([]string{ticker})
	if err != nil {
		return 0, err
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("no ticker data for %s", ticker)
	}
	return tickers[0].TradePrice, nil
}

// GetCandles returns the most recent 1-minute candles, oldest first.
func (c *Client) GetCandles(ticker string, count int) ([]domain.Candle, error) {
	url := fmt.Sprintf("%s/v1/candles/minutes/1?market=%s&count=%d", c.baseURL, MarketCode(ticker), count)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var raw []struct {
		Timestamp    int64   `json:"timestamp"`
		OpeningPrice float64 `json:"opening_price"`
		HighPrice    float64 `json:"high_price"`
		LowPrice     float64 `json:"low_price"`
		TradePrice   float64 `json:"trade_price"`
		Volume       float64 `json:"candle_acc_trade_volume"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	// Upbit returns newest first, reverse to chronological order.
	candles := make([]domain.Candle, len(raw))
	for i, r := range raw {
		candles[len(raw)-1-i] = domain.Candle{
			OpenTime: time.UnixMilli(r.Timestamp),
			Open:     r.OpeningPrice,
			High:     r.HighPrice,
			Low:      r.LowPrice,
			Close:    r.TradePrice,
			Volume:   r.Volume,
		}
	}
	return candles, nil
}

// GetBestBid returns the highest bid price from the orderbook.
func (c *Client) GetBestBid(ticker string) (float64, error) {
	url := fmt.Sprintf("%s/v1/orderbook?markets=%s", c.baseURL, MarketCode(ticker))
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readAPIError(resp)
	}

	var books []struct {
		OrderbookUnits []struct {
			BidPrice float64 `json:"bid_price"`
		} `json:"orderbook_units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return 0, err
	}
	if len(books) == 0 || len(books[0].OrderbookUnits) == 0 {
		return 0, fmt.Errorf("empty orderbook for %s", ticker)
	}
	return books[0].OrderbookUnits[0].BidPrice, nil
}

// GetTickers returns 24h snapshots for every KRW market.
func (c *Client) GetTickers() ([]domain.TickerQuote, error) {
	markets, err := c.getKRWMarkets()
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.TickerQuote, 0, len(markets))
	// The ticker endpoint caps the market list per request.
	const chunkSize = 100
	for start := 0; start < len(markets); start += chunkSize {
		end := start + chunkSize
		if end > len(markets) {
			end = len(markets)
		}
		snaps, err := c.getTickerSnapshots(markets[start:end])
		if err != nil {
			return nil, err
		}
		for _, s := range snaps {
			quotes = append(quotes, domain.TickerQuote{
				Ticker:       TickerFromMarket(s.Market),
				Price:        s.TradePrice,
				Volume24h:    s.AccTradePrice24h,
				ChangeRate:   s.SignedChangeRate,
				HighPrice24h: s.HighPrice,
				LowPrice24h:  s.LowPrice,
			})
		}
	}
	return quotes, nil
}

func (c *Client) getKRWMarkets() ([]string, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/v1/market/all")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var all []struct {
		Market string `json:"market"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, err
	}

	var krw []string
	for _, m := range all {
		if strings.HasPrefix(m.Market, "KRW-") {
			krw = append(krw, TickerFromMarket(m.Market))
		}
	}
	return krw, nil
}

func (c *Client) getTickerSnapshots(tickers []string) ([]tickerResponse, error) {
	codes := make([]string, len(tickers))
	for i, t := range tickers {
		codes[i] = MarketCode(t)
	}
	url := c.baseURL + "/v1/ticker?markets=" + strings.Join(codes, ",")
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var snaps []tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return parseAPIError(resp.StatusCode, body)
}
