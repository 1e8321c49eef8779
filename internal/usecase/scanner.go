package usecase

import (
	"log"
	"sort"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
)

// scanCandleCount is how much history each scanned market gets.
const scanCandleCount = 60

// Scanner walks the full market list in batches, scoring each market
// and keeping the top recommendations.
type Scanner struct {
	gateway domain.MarketGateway
	oracle  domain.SignalOracle
	ledger  domain.TradeLedger
	store   domain.RecommendationStore

	batchSize int
	topN      int
	minPrice  float64

	mu        sync.Mutex
	markets   []string
	scanIndex int
}

func NewScanner(gateway domain.MarketGateway, oracle domain.SignalOracle,
	ledger domain.TradeLedger, store domain.RecommendationStore,
	batchSize, topN int, minPrice float64) *Scanner {
	if batchSize <= 0 {
		batchSize = 50
	}
	if topN <= 0 {
		topN = 5
	}
	return &Scanner{
		gateway:   gateway,
		oracle:    oracle,
		ledger:    ledger,
		store:     store,
		batchSize: batchSize,
		topN:      topN,
		minPrice:  minPrice,
	}
}

// RefreshMarkets reloads the tradable market list and resets pagination.
func (s *Scanner) RefreshMarkets() error {
	quotes, err := s.gateway.GetTickers()
	if err != nil {
		return err
	}

	markets := make([]string, 0, len(quotes))
	for _, q := range quotes {
		markets = append(markets, q.Ticker)
	}

	s.mu.Lock()
	s.markets = markets
	s.scanIndex = 0
	s.mu.Unlock()

	log.Printf("✓ Scanner loaded %d markets", len(markets))
	return nil
}

// ScanBatch analyzes the next batch of markets and returns the top
// recommendations across the batch, also saving them to the store.
// The index wraps around after a full market pass.
func (s *Scanner) ScanBatch() ([]domain.Recommendation, error) {
	s.mu.Lock()
	if len(s.markets) == 0 {
		s.mu.Unlock()
		if err := s.RefreshMarkets(); err != nil {
			return nil, err
		}
		s.mu.Lock()
	}

	total := len(s.markets)
	start := s.scanIndex
	end := start + s.batchSize
	if end > total {
		end = total
	}
	batch := make([]string, end-start)
	copy(batch, s.markets[start:end])

	s.scanIndex += s.batchSize
	if s.scanIndex >= total {
		s.scanIndex = 0
	}
	s.mu.Unlock()

	log.Printf("🔍 Scanning batch %d-%d of %d markets", start+1, end, total)

	quotes, err := s.gateway.GetTickers()
	if err != nil {
		return nil, err
	}
	quoteByTicker := make(map[string]domain.TickerQuote, len(quotes))
	for _, q := range quotes {
		quoteByTicker[q.Ticker] = q
	}

	recs := make([]domain.Recommendation, 0, len(batch))
	for _, ticker := range batch {
		quote, ok := quoteByTicker[ticker]
		if !ok {
			continue
		}
		rec, err := s.analyze(ticker, quote)
		if err != nil {
			log.Printf("⚠️ [%s] Scan failed: %v", ticker, err)
			continue
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > s.topN {
		recs = recs[:s.topN]
	}

	s.store.SaveRecommendations(recs)
	for i, rec := range recs {
		mark := "⚠️"
		if rec.Recommended {
			mark = "✅"
		}
		log.Printf("   %d. %s: score=%.1f conf=%.1f%% %s", i+1, rec.Ticker, rec.Score, rec.Confidence*100, mark)
	}
	return recs, nil
}

// Recommendations returns the results saved by the last scan.
func (s *Scanner) Recommendations() []domain.Recommendation {
	return s.store.GetRecommendations()
}

// analyze scores a single market. Returns nil when the market fails the
// liquidity filters or has too little candle history.
func (s *Scanner) analyze(ticker string, quote domain.TickerQuote) (*domain.Recommendation, error) {
	if quote.Price < s.minPrice {
		return nil, nil
	}

	candles, err := s.gateway.GetCandles(ticker, scanCandleCount)
	if err != nil {
		return nil, err
	}

	features, err := ExtractFeatures(candles, time.Now())
	if err != nil {
		return nil, nil // thin history, skip quietly
	}

	prediction, confidence, err := s.oracle.Predict(features)
	if err != nil {
		return nil, err
	}

	hist, err := s.ledger.TickerStats(ticker)
	if err != nil {
		hist = nil
	}

	score := CompositeScore(features, confidence, hist)
	recommended := ShouldRecommend(features, confidence, prediction, score)

	var reasons []string
	if features.RSI < 40 {
		reasons = append(reasons, "oversold RSI")
	}
	if features.BBPosition < 0.3 {
		reasons = append(reasons, "lower band")
	}
	if features.MACD > features.MACDSignal {
		reasons = append(reasons, "MACD cross")
	}

	return &domain.Recommendation{
		Ticker:      ticker,
		Score:       score,
		Confidence:  confidence,
		Prediction:  prediction,
		Price:       quote.Price,
		Volume24h:   quote.Volume24h,
		Reasons:     reasons,
		Recommended: recommended,
		ScannedAt:   time.Now(),
	}, nil
}
