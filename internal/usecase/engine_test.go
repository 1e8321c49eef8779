package usecase

import (
	"errors"
	"testing"
	"time"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/repository"
)

// countingGateway wraps the fake to count balance reads per tick.
type countingGateway struct {
	*fakeGateway
	balanceCalls int
}

func (g *countingGateway) GetBalance() (float64, error) {
	g.balanceCalls++
	return g.fakeGateway.GetBalance()
}

// fallingCandles builds a gently declining series: oversold RSI and a
// low band position without tripping the 15-bar trend filter.
func fallingCandles(n int, start, step, volume float64) []domain.Candle {
	out := make([]domain.Candle, n)
	price := start
	for i := range out {
		out[i] = domain.Candle{Open: price + step, High: price + step, Low: price, Close: price, Volume: volume}
		price -= step
	}
	return out
}

func newTestEngine(gw domain.MarketGateway, ledger domain.TradeLedger) *Engine {
	positions := NewPositionStore()
	watchlist := NewWatchlist(nil)
	return NewEngine(EngineDeps{
		Gateway:    gw,
		Ledger:     ledger,
		Oracle:     fakeOracle{class: domain.ClassProfit, conf: 0.8},
		Positions:  positions,
		Watchlist:  watchlist,
		Cooldowns:  NewCooldownGate(0.015),
		Risk:       NewRiskManager(gw, 0.5),
		Sizer:      &PositionSizer{TradeAmount: 100000, MinOrderNotional: 5000, MaxPositionShare: 0.3},
		Reconciler: NewReconciler(gw, ledger, positions, watchlist),
		EntryParams: EntryParams{
			ConfidenceThreshold: 0.7,
			MinPriceFilter:      100,
			MinVolumeFilter:     1e8,
			BaseTrendLimit:      -0.03,
		},
		ExitParams: ExitParams{
			TargetProfit:       0.02,
			StopLoss:           0.02,
			TrailingActivation: 0.015,
			TrailingDistance:   0.01,
		},
		TradeAmount:     100000,
		SellMinNotional: 5000,
		BaseTicker:      "BTC",
	})
}

// tickGateway scripts one full tick: an open XRP position sitting at
// -2.5% and a watchlisted DOGE with a valid oversold entry setup.
func tickGateway(balance float64) *countingGateway {
	return &countingGateway{fakeGateway: &fakeGateway{
		prices: map[string]float64{"XRP": 975, "DOGE": 980},
		candles: map[string][]domain.Candle{
			"XRP":  flatCandles(60, 975, 10),
			"DOGE": fallingCandles(60, 1010, 0.5, 10),
			"BTC":  flatCandles(60, 50000, 10),
		},
		quotes: []domain.TickerQuote{
			{Ticker: "DOGE", Price: 980, Volume24h: 5e8},
		},
		balance:  balance,
		holdings: []domain.Holding{{Ticker: "XRP", Amount: 10, AvgBuyPrice: 1000}},
	}}
}

func TestEngineTick(t *testing.T) {
	t.Run("sell fires and low balance gates entries", func(t *testing.T) {
		// The tick's single balance read sees 50000. The XRP sale earlier
		// in the same tick grosses ~9750 but those proceeds are not
		// re-read, so the DOGE entry stays blocked.
		gw := tickGateway(50000)
		e := newTestEngine(gw, repository.NewInMemoryLedger())
		e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1000})
		e.Watchlist.Add("DOGE")

		if !e.runTick() {
			t.Fatal("tick requested halt")
		}

		if len(gw.sells) != 1 || gw.sells[0] != "XRP" {
			t.Fatalf("sells = %v, want [XRP]", gw.sells)
		}
		if e.Positions.Has("XRP") {
			t.Error("XRP position not closed")
		}
		if !e.Cooldowns.InSellCooldown("XRP") {
			t.Error("XRP sell cooldown not registered")
		}
		if len(gw.buys) != 0 {
			t.Errorf("buys = %v, want none with balance below the trade amount", gw.buys)
		}
		if gw.balanceCalls != 2 {
			t.Errorf("balance reads = %d, want 2 (equity check plus entry gate)", gw.balanceCalls)
		}
	})

	t.Run("sufficient balance lets the same setup buy", func(t *testing.T) {
		gw := tickGateway(200000)
		ledger := repository.NewInMemoryLedger()
		e := newTestEngine(gw, ledger)
		e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1000})
		e.Watchlist.Add("DOGE")

		if !e.runTick() {
			t.Fatal("tick requested halt")
		}

		if len(gw.sells) != 1 || gw.sells[0] != "XRP" {
			t.Fatalf("sells = %v, want [XRP]", gw.sells)
		}
		if len(gw.buys) != 1 || gw.buys[0] != "DOGE" {
			t.Fatalf("buys = %v, want [DOGE]", gw.buys)
		}
		if !e.Positions.Has("DOGE") {
			t.Error("DOGE position not opened")
		}
		open, err := ledger.OpenTrades()
		if err != nil {
			t.Fatal(err)
		}
		if len(open) != 1 || open[0].Ticker != "DOGE" {
			t.Errorf("open trades = %v, want one DOGE entry", open)
		}
	})

	t.Run("rejected buy registers the failed-buy cooldown", func(t *testing.T) {
		gw := tickGateway(200000)
		gw.buyErr = errors.New("insufficient funds")
		e := newTestEngine(gw, repository.NewInMemoryLedger())
		e.Watchlist.Add("DOGE")

		if !e.runTick() {
			t.Fatal("tick requested halt")
		}

		if len(gw.buys) != 0 {
			t.Fatalf("buys = %v, want none", gw.buys)
		}
		if e.Positions.Has("DOGE") {
			t.Error("position opened despite rejected order")
		}
		if !e.Cooldowns.FailedBuyActive("DOGE") {
			t.Error("failed-buy cooldown not registered")
		}
	})
}

func TestEngineDrawdownLiquidation(t *testing.T) {
	gw := &fakeGateway{
		prices:   map[string]float64{"XRP": 900},
		candles:  map[string][]domain.Candle{"XRP": flatCandles(60, 900, 10)},
		balance:  0,
		holdings: []domain.Holding{{Ticker: "XRP", Amount: 10, AvgBuyPrice: 1000}},
	}
	e := newTestEngine(gw, repository.NewInMemoryLedger())
	e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1000})

	// Mark the engine live so the breach path exercises halt.
	e.mu.Lock()
	e.running = true
	e.stop = make(chan struct{})
	e.mu.Unlock()

	// Seed an equity peak far above current equity (9000).
	e.Risk.mu.Lock()
	e.Risk.peak = 1000000
	e.Risk.mu.Unlock()

	if e.runTick() {
		t.Fatal("tick did not request halt on drawdown breach")
	}
	if e.Running() {
		t.Error("engine still running after breach")
	}
	if len(gw.sells) != 1 || gw.sells[0] != "XRP" {
		t.Fatalf("sells = %v, want [XRP] liquidated", gw.sells)
	}
	if e.Positions.Len() != 0 {
		t.Errorf("positions left after liquidation: %v", e.Positions.Tickers())
	}
}

func TestEngineSellAmountResync(t *testing.T) {
	t.Run("amount synced to live holdings", func(t *testing.T) {
		gw := &fakeGateway{
			prices:   map[string]float64{"XRP": 1020},
			balance:  50000,
			holdings: []domain.Holding{{Ticker: "XRP", Amount: 12, AvgBuyPrice: 1000}},
		}
		e := newTestEngine(gw, repository.NewInMemoryLedger())
		e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1020})

		e.executeSell("XRP", 1020, 0.02, "Target Profit (2.0%)")

		if len(gw.sellAmounts) != 1 || gw.sellAmounts[0] != 12 {
			t.Fatalf("sell amounts = %v, want [12] from live holdings", gw.sellAmounts)
		}
		if e.Positions.Has("XRP") {
			t.Error("position not closed")
		}
	})

	t.Run("missing holding drops the position without selling", func(t *testing.T) {
		gw := &fakeGateway{
			prices:  map[string]float64{"XRP": 1020},
			balance: 50000,
		}
		e := newTestEngine(gw, repository.NewInMemoryLedger())
		e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1020})

		e.executeSell("XRP", 1020, 0.02, "Target Profit (2.0%)")

		if len(gw.sells) != 0 {
			t.Fatalf("sells = %v, want none", gw.sells)
		}
		if e.Positions.Has("XRP") {
			t.Error("externally sold position not dropped")
		}
		if e.Cooldowns.InSellCooldown("XRP") {
			t.Error("cooldown registered for a sell that never happened")
		}
	})

	t.Run("dust below the sell minimum is kept", func(t *testing.T) {
		gw := &fakeGateway{
			prices:   map[string]float64{"XRP": 1020},
			balance:  50000,
			holdings: []domain.Holding{{Ticker: "XRP", Amount: 1, AvgBuyPrice: 1000}},
		}
		e := newTestEngine(gw, repository.NewInMemoryLedger())
		e.Positions.Set(&domain.Position{Ticker: "XRP", BuyPrice: 1000, Amount: 1, EntryTime: time.Now(), PeakPrice: 1020})

		e.executeSell("XRP", 1020, 0.02, "Target Profit (2.0%)")

		if len(gw.sells) != 0 {
			t.Fatalf("sells = %v, want none below minimum notional", gw.sells)
		}
		if !e.Positions.Has("XRP") {
			t.Error("position dropped despite the skipped sell")
		}
	})
}

func TestEngineRetrainTrigger(t *testing.T) {
	gw := &fakeGateway{
		prices:   map[string]float64{"DOGE": 510},
		balance:  50000,
		holdings: []domain.Holding{{Ticker: "DOGE", Amount: 20, AvgBuyPrice: 500}},
	}
	ledger := repository.NewInMemoryLedger()

	// One already-closed trade, the engine's sell makes it two.
	id1, err := ledger.RecordEntry(&domain.Trade{Ticker: "XRP", EntryPrice: 1000, Amount: 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := ledger.RecordExit(id1, 1020, 0.02, "Target Profit (2.0%)"); err != nil {
		t.Fatal(err)
	}
	id2, err := ledger.RecordEntry(&domain.Trade{Ticker: "DOGE", EntryPrice: 500, Amount: 20})
	if err != nil {
		t.Fatal(err)
	}

	retrained := make(chan struct{}, 1)
	e := newTestEngine(gw, ledger)
	e.RetrainThreshold = 2
	e.RetrainFunc = func() { retrained <- struct{}{} }
	e.Positions.Set(&domain.Position{Ticker: "DOGE", BuyPrice: 500, Amount: 20, EntryTime: time.Now(), PeakPrice: 510, TradeID: id2})

	e.executeSell("DOGE", 510, 0.02, "Target Profit (2.0%)")

	select {
	case <-retrained:
	case <-time.After(time.Second):
		t.Fatal("retrain hook not fired at the trade threshold")
	}

	// Off the threshold nothing fires.
	e.RetrainThreshold = 3
	e.maybeTriggerRetrain()
	select {
	case <-retrained:
		t.Fatal("retrain hook fired off the threshold")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEngineScanAddsUnheldPick(t *testing.T) {
	gw := &fakeGateway{
		quotes: []domain.TickerQuote{
			{Ticker: "AAA", Price: 1000, Volume24h: 5e8},
			{Ticker: "BBB", Price: 2000, Volume24h: 5e8},
		},
		candles: map[string][]domain.Candle{
			"AAA": flatCandles(60, 1000, 10),
			"BBB": flatCandles(60, 2000, 10),
		},
	}
	ledger := repository.NewInMemoryLedger()
	e := newTestEngine(gw, ledger)
	e.Scanner = NewScanner(gw, fakeOracle{class: domain.ClassProfit, conf: 0.8},
		ledger, repository.NewInMemoryRecommendationStore(), 10, 5, 100)
	e.Positions.Set(&domain.Position{Ticker: "AAA", BuyPrice: 1000, Amount: 10, EntryTime: time.Now(), PeakPrice: 1000})

	e.runScan()

	if e.Watchlist.Has("AAA") {
		t.Error("held ticker added to the watchlist")
	}
	if !e.Watchlist.Has("BBB") {
		t.Error("top unheld pick not added to the watchlist")
	}
}

func TestEngineStatus(t *testing.T) {
	gw := &fakeGateway{balance: 50000}
	ledger := repository.NewInMemoryLedger()
	store := repository.NewInMemoryRecommendationStore()
	store.SaveRecommendations([]domain.Recommendation{{Ticker: "AAA", Score: 80, Confidence: 0.8}})

	e := newTestEngine(gw, ledger)
	e.Scanner = NewScanner(gw, fakeOracle{class: domain.ClassProfit, conf: 0.8}, ledger, store, 10, 5, 100)
	e.Positions.Set(&domain.Position{
		Ticker:    "XRP",
		BuyPrice:  1000,
		Amount:    10,
		EntryTime: time.Now().Add(-90 * time.Minute),
		PeakPrice: 1000,
	})
	e.Watchlist.Add("DOGE")

	status := e.Status()

	if status.Running {
		t.Error("status reports running before Start")
	}
	if !status.OracleReady {
		t.Error("status does not report the oracle ready")
	}
	if len(status.Recommendations) != 1 || status.Recommendations[0].Ticker != "AAA" {
		t.Errorf("recommendations = %v, want the saved AAA pick", status.Recommendations)
	}
	if got := status.HoldTimes["XRP"]; got != "1h30m0s" {
		t.Errorf("hold time = %q, want 1h30m0s", got)
	}
	if len(status.Watchlist) != 1 || status.Watchlist[0] != "DOGE" {
		t.Errorf("watchlist = %v, want [DOGE]", status.Watchlist)
	}
}
