package usecase

import (
	"log"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

// tickCandleCount is the history fetched per ticker inside a tick.
const tickCandleCount = 60

// EngineDeps bundle everything the engine owns.
type EngineDeps struct {
	Gateway    domain.MarketGateway
	Ledger     domain.TradeLedger
	Oracle     domain.SignalOracle
	Positions  *PositionStore
	Watchlist  *Watchlist
	Cooldowns  *CooldownGate
	Risk       *RiskManager
	Sizer      *PositionSizer
	Scanner    *Scanner
	Reconciler *Reconciler
	Notifier   *Notifier

	EntryParams EntryParams
	ExitParams  ExitParams

	TradeAmount      float64
	SellMinNotional  float64
	BaseTicker       string
	RetrainThreshold int
	RetrainFunc      func() // fired asynchronously after every Nth closed trade

	TickInterval time.Duration
	ScanInterval time.Duration
}

// Engine runs the trading loops: a fast tick loop for exits and
// entries, and a slower scan loop that feeds the watchlist.
type Engine struct {
	EngineDeps

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	sessionTrades int
	sessionWins   int
}

func NewEngine(deps EngineDeps) *Engine {
	if deps.TickInterval <= 0 {
		deps.TickInterval = 10 * time.Second
	}
	if deps.ScanInterval <= 0 {
		deps.ScanInterval = 30 * time.Second
	}
	return &Engine{EngineDeps: deps}
}

// Start recovers positions and launches the loops. No-op when already
// running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		log.Println("⚠️ Engine is already running")
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.mu.Unlock()

	e.Risk.Rearm()
	if err := e.Reconciler.Recover(); err != nil {
		log.Printf("⚠️ %v", err)
	}

	e.wg.Add(2)
	go e.tickLoop()
	go e.scanLoop()
	log.Println("✅ Engine STARTED")
}

// Stop signals both loops and waits for them to finish.
func (e *Engine) Stop() {
	e.halt()
	e.wg.Wait()
	log.Println("🛑 Engine STOPPED")
}

// Running reports whether the loops are live.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// halt flips the running flag and closes the stop channel exactly once.
// Safe to call from inside the loops.
func (e *Engine) halt() {
	e.mu.Lock()
	if e.running {
		e.running = false
		close(e.stop)
	}
	e.mu.Unlock()
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()
	log.Println("🔄 Trading loop started")

	for {
		if !e.runTick() {
			return
		}
		if !e.sleep(e.TickInterval) {
			log.Println("🔄 Trading loop stopped")
			return
		}
	}
}

// runTick executes one full engine tick. Returns false when the engine
// must halt (drawdown breach).
func (e *Engine) runTick() bool {
	// 1. Drawdown check, rate limited inside the risk manager.
	breached, drawdown, err := e.Risk.Check()
	if err != nil {
		log.Printf("⚠️ Drawdown check failed: %v", err)
	} else {
		CurrentDrawdown.Set(drawdown)
	}
	if breached {
		e.emergencyLiquidate(drawdown)
		e.halt()
		return false
	}

	// 2. Drop positions sold externally.
	if err := e.Reconciler.Sync(); err != nil {
		log.Printf("⚠️ Position sync failed: %v", err)
	}

	// 3. Exits for every open position.
	for _, ticker := range e.Positions.Tickers() {
		e.checkExit(ticker)
	}

	// 4. Entries. One balance fetch gates the whole phase; proceeds of
	// sells earlier in this tick are deliberately not re-read.
	balance, err := e.Gateway.GetBalance()
	if err != nil {
		log.Printf("⚠️ Balance fetch failed: %v", err)
	} else if balance < e.TradeAmount {
		log.Printf("💸 Insufficient balance (%.0f), skipping entry checks", balance)
	} else {
		e.checkEntries(balance)
	}

	TicksTotal.Inc()
	OpenPositions.Set(float64(e.Positions.Len()))
	return true
}

// emergencyLiquidate market-sells every open position after a drawdown
// breach. Failures are logged and skipped, the stop happens regardless.
func (e *Engine) emergencyLiquidate(drawdown float64) {
	log.Println("🛑 Liquidating all positions")
	e.Notifier.NotifyDrawdown(drawdown)

	for _, pos := range e.Positions.List() {
		log.Printf("🚨 Emergency sell: %s", pos.Ticker)
		price, err := e.Gateway.GetPrice(pos.Ticker)
		if err != nil {
			price = pos.BuyPrice
		}
		profitRate := SimpleProfitRate(pos.BuyPrice, price)
		if e.ExitParams.UseNetProfit {
			profitRate = NetProfitRate(pos.BuyPrice, price, e.ExitParams.FeeRate)
		}
		e.executeSell(pos.Ticker, price, profitRate, "Max Drawdown")
	}
}

func (e *Engine) checkExit(ticker string) {
	pos, ok := e.Positions.Get(ticker)
	if !ok {
		return
	}

	price, err := e.Gateway.GetPrice(ticker)
	if err != nil {
		log.Printf("⚠️ [%s] Price fetch failed: %v", ticker, err)
		return
	}

	ctx := ExitContext{Position: pos, Price: price}
	if candles, err := e.Gateway.GetCandles(ticker, tickCandleCount); err == nil && len(candles) > 0 {
		ctx.CandleOpen = candles[len(candles)-1].Open
		if features, err := ExtractFeatures(candles, time.Now()); err == nil {
			ctx.ATR = features.ATR
			ctx.BBPosition = features.BBPosition
			ctx.HasFeatures = true
		}
	}

	decision := EvaluateExit(e.ExitParams, ctx)
	log.Printf("📊 [%s] price %.0f, entry %.0f, profit %+.2f%%",
		ticker, price, pos.BuyPrice, decision.ProfitRate*100)

	if !decision.Sell {
		e.Positions.UpdatePeak(ticker, decision.PeakPrice)
		return
	}
	e.executeSell(ticker, price, decision.ProfitRate, decision.Reason)
}

// executeSell closes a position at market, records the exit and
// registers the sell cooldown.
func (e *Engine) executeSell(ticker string, price, profitRate float64, reason string) {
	pos, ok := e.Positions.Get(ticker)
	if !ok {
		return
	}

	// Re-sync the amount against live holdings, manual trades may have
	// changed it since entry.
	holdings, err := e.Gateway.GetHoldings()
	if err == nil {
		found := false
		for _, h := range holdings {
			if h.Ticker != ticker {
				continue
			}
			found = true
			if h.Amount != pos.Amount {
				log.Printf("🔄 [%s] Amount synced %.4f → %.4f", ticker, pos.Amount, h.Amount)
				pos.Amount = h.Amount
				e.Positions.SetAmount(ticker, h.Amount)
			}
		}
		if !found {
			log.Printf("⚠️ [%s] Not in holdings, position dropped", ticker)
			e.Positions.Delete(ticker)
			return
		}
	}

	// Market sells settle against the best bid, check the minimum there.
	bid, err := e.Gateway.GetBestBid(ticker)
	if err != nil || bid <= 0 {
		bid = price
	}
	if pos.Amount*bid < e.SellMinNotional {
		log.Printf("⚠️ [%s] Cannot sell, notional %.0f below minimum %.0f",
			ticker, pos.Amount*bid, e.SellMinNotional)
		return
	}

	if _, err := e.Gateway.SellMarket(ticker, pos.Amount); err != nil {
		log.Printf("❌ [%s] Sell order failed: %v", ticker, err)
		RecordOrder("sell", false)
		return
	}
	RecordOrder("sell", true)

	log.Printf("💸 [%s] Sold at %.0f (%+.2f%%) after %s: %s",
		ticker, price, profitRate*100, pos.HoldTime(time.Now()).Round(time.Second), reason)

	if pos.TradeID > 0 {
		if err := e.Ledger.RecordExit(pos.TradeID, price, profitRate, reason); err != nil {
			log.Printf("⚠️ [%s] Ledger exit update failed: %v", ticker, err)
		}
	}

	e.mu.Lock()
	e.sessionTrades++
	if profitRate > 0 {
		e.sessionWins++
	}
	e.mu.Unlock()

	e.Cooldowns.RegisterSell(ticker, price, profitRate > 0)
	e.Watchlist.Remove(ticker)
	e.Positions.Delete(ticker)
	e.Notifier.NotifyExit(ticker, price, profitRate, reason)

	e.maybeTriggerRetrain()
}

// maybeTriggerRetrain fires the retrain hook after every Nth closed trade.
func (e *Engine) maybeTriggerRetrain() {
	if e.RetrainFunc == nil || e.RetrainThreshold <= 0 {
		return
	}
	stats, err := e.Ledger.Statistics()
	if err != nil || stats.TotalTrades == 0 {
		return
	}
	if stats.TotalTrades%e.RetrainThreshold == 0 {
		log.Printf("🎓 Triggering model retraining (%d closed trades)", stats.TotalTrades)
		go e.RetrainFunc()
	}
}

// checkEntries evaluates every watchlisted ticker without a position.
func (e *Engine) checkEntries(balance float64) {
	baseTrend, baseErr := e.baseTrend()
	if baseErr != nil {
		log.Printf("⚠️ Base trend fetch failed: %v", baseErr)
	}

	quotes, err := e.Gateway.GetTickers()
	if err != nil {
		log.Printf("⚠️ Ticker snapshot failed: %v", err)
		return
	}
	quoteByTicker := make(map[string]domain.TickerQuote, len(quotes))
	for _, q := range quotes {
		quoteByTicker[q.Ticker] = q
	}

	for _, ticker := range e.Watchlist.List() {
		if e.Positions.Has(ticker) {
			continue
		}
		quote, ok := quoteByTicker[ticker]
		if !ok {
			continue
		}
		e.checkEntry(ticker, quote, baseTrend, balance)
	}
}

func (e *Engine) checkEntry(ticker string, quote domain.TickerQuote, baseTrend, balance float64) {
	price, err := e.Gateway.GetPrice(ticker)
	if err != nil {
		log.Printf("⚠️ [%s] Price fetch failed: %v", ticker, err)
		return
	}

	candles, err := e.Gateway.GetCandles(ticker, tickCandleCount)
	if err != nil {
		log.Printf("⚠️ [%s] Candle fetch failed: %v", ticker, err)
		return
	}
	features, err := ExtractFeatures(candles, time.Now())
	if err != nil {
		return // thin history, skip this tick
	}

	prediction, confidence, err := e.Oracle.Predict(features)
	if err != nil {
		log.Printf("⚠️ [%s] Prediction failed: %v", ticker, err)
		return
	}

	ctx := EntryContext{
		Ticker:         ticker,
		IsBaseTicker:   ticker == e.BaseTicker,
		BaseTrend:      baseTrend,
		Price:          price,
		Volume24h:      quote.Volume24h,
		Features:       features,
		Prediction:     prediction,
		Confidence:     confidence,
		HasPosition:    e.Positions.Has(ticker),
		FailedCooldown: e.Cooldowns.FailedBuyActive(ticker),
		SellCooldown:   e.Cooldowns.SellBlocked(ticker, price),
	}

	decision := EvaluateEntry(e.EntryParams, ctx)
	if !decision.Buy {
		return
	}

	log.Printf("✅ [%s] Entry signal: %s (conf %.1f%%, RSI %.1f)",
		ticker, decision.Reason, decision.Confidence*100, features.RSI)
	e.executeBuy(ticker, price, features, decision, balance)
}

func (e *Engine) executeBuy(ticker string, price float64, features *domain.FeatureVector,
	decision EntryDecision, balance float64) {
	stats, err := e.Ledger.Statistics()
	if err != nil {
		stats = nil
	}
	notional := e.Sizer.Size(stats, balance, decision.Confidence)

	order, err := e.Gateway.BuyMarket(ticker, notional)
	if err != nil {
		log.Printf("❌ [%s] Buy order failed: %v", ticker, err)
		e.Cooldowns.RegisterFailedBuy(ticker)
		RecordOrder("buy", false)
		return
	}
	RecordOrder("buy", true)

	amount := notional / price
	if order != nil && order.Amount > 0 {
		amount = order.Amount
	}

	tradeID, err := e.Ledger.RecordEntry(&domain.Trade{
		Ticker:     ticker,
		EntryTime:  time.Now(),
		EntryPrice: price,
		Amount:     amount,
		Confidence: decision.Confidence,
		Features:   features,
	})
	if err != nil {
		log.Printf("⚠️ [%s] Ledger entry failed: %v", ticker, err)
	}

	e.Positions.Set(&domain.Position{
		Ticker:    ticker,
		BuyPrice:  price,
		Amount:    amount,
		EntryTime: time.Now(),
		PeakPrice: price,
		TradeID:   tradeID,
	})

	log.Printf("🚀 [%s] Position opened: %.0f @ %.0f (%s)", ticker, notional, price, decision.Reason)
	e.Notifier.NotifyEntry(ticker, price, notional, decision.Reason)
}

// baseTrend returns the 10-bar fractional change of the base market.
func (e *Engine) baseTrend() (float64, error) {
	candles, err := e.Gateway.GetCandles(e.BaseTicker, 11)
	if err != nil {
		return 0, err
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return indicators.ChangeRate(closes, 10), nil
}

func (e *Engine) scanLoop() {
	defer e.wg.Done()
	log.Println("🔄 Scan loop started")

	for {
		if !e.sleep(e.ScanInterval) {
			log.Println("🔄 Scan loop stopped")
			return
		}
		e.runScan()
	}
}

// runScan refreshes recommendations and adds the best unheld ticker to
// the watchlist.
func (e *Engine) runScan() {
	recs, err := e.Scanner.ScanBatch()
	if err != nil {
		log.Printf("⚠️ Scan failed: %v", err)
		return
	}
	ScansTotal.Inc()

	for i, rec := range recs {
		if e.Watchlist.Has(rec.Ticker) || e.Positions.Has(rec.Ticker) || e.Cooldowns.InSellCooldown(rec.Ticker) {
			continue
		}
		log.Printf("🏆 Rank #%d pick: %s (score %.1f, conf %.1f%%)", i+1, rec.Ticker, rec.Score, rec.Confidence*100)
		e.Watchlist.Add(rec.Ticker)
		e.Notifier.NotifyRecommendation(rec)
		return
	}
}

// sleep waits for d, polling the stop flag every second so shutdown
// latency stays bounded. Returns false once stopped.
func (e *Engine) sleep(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		select {
		case <-e.stop:
			return false
		case <-time.After(step):
		}
	}
}

// EngineStatus is a point-in-time snapshot for any hosting surface.
type EngineStatus struct {
	Running         bool                    `json:"running"`
	OracleReady     bool                    `json:"oracleReady"`
	Watchlist       []string                `json:"watchlist"`
	Positions       []*domain.Position      `json:"positions"`
	HoldTimes       map[string]string       `json:"holdTimes"`
	Cooldowns       map[string]SellCooldown `json:"cooldowns"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	SessionTrades   int                     `json:"sessionTrades"`
	SessionWins     int                     `json:"sessionWins"`
	TotalTrades     int                     `json:"totalTrades"`
	WinRate         float64                 `json:"winRate"`
	EquityPeak      float64                 `json:"equityPeak"`
}

// Status assembles the current snapshot.
func (e *Engine) Status() EngineStatus {
	status := EngineStatus{
		Running:   e.Running(),
		Watchlist: e.Watchlist.List(),
		Positions: e.Positions.List(),
		Cooldowns: e.Cooldowns.ActiveSellCooldowns(),
	}
	if e.Oracle != nil {
		status.OracleReady = e.Oracle.Ready()
	}
	if e.Scanner != nil {
		status.Recommendations = e.Scanner.Recommendations()
	}
	now := time.Now()
	status.HoldTimes = make(map[string]string, len(status.Positions))
	for _, pos := range status.Positions {
		status.HoldTimes[pos.Ticker] = pos.HoldTime(now).Round(time.Second).String()
	}

	e.mu.Lock()
	status.SessionTrades = e.sessionTrades
	status.SessionWins = e.sessionWins
	e.mu.Unlock()

	if stats, err := e.Ledger.Statistics(); err == nil {
		status.TotalTrades = stats.TotalTrades
		status.WinRate = stats.WinRate
	}
	status.EquityPeak = e.Risk.Peak()
	return status
}
