package upbit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultWsURL = "wss://api.upbit.com/websocket/v1"

// TickerStream maintains a websocket subscription to realtime trade
// prices and publishes them into the price cache.
type TickerStream struct {
	wsURL   string
	cache   *PriceCache
	markets func() []string // tickers to subscribe, called on each (re)connect
}

func NewTickerStream(wsURL string, cache *PriceCache, markets func() []string) *TickerStream {
	if wsURL == "" {
		wsURL = DefaultWsURL
	}
	return &TickerStream{wsURL: wsURL, cache: cache, markets: markets}
}

// Run connects and pumps prices until the context is cancelled,
// reconnecting with a fixed backoff on any failure.
func (s *TickerStream) Run(ctx context.Context) {
	for {
		if err := s.connectAndPump(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️ Ticker stream disconnected: %v. Reconnecting in 5s...", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// subscriptionCodes converts bare tickers to market codes, dropping
// duplicates. The markets callback hands over plain tickers, the
// conversion happens only here.
func subscriptionCodes(tickers []string) []string {
	codes := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		code := MarketCode(t)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

func (s *TickerStream) connectAndPump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	codes := subscriptionCodes(s.markets())

	sub := []interface{}{
		map[string]string{"ticket": "tradebot"},
		map[string]interface{}{"type": "ticker", "codes": codes},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	log.Printf("✓ Ticker stream subscribed to %d markets", len(codes))

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var tick struct {
			Code       string  `json:"code"`
			TradePrice float64 `json:"trade_price"`
		}
		if err := json.Unmarshal(msg, &tick); err != nil || tick.Code == "" {
			continue
		}
		s.cache.Set(TickerFromMarket(tick.Code), tick.TradePrice)
	}
}
