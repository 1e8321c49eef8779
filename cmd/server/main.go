package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradebot-backend/internal/config"
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/db"
	"tradebot-backend/internal/infrastructure/fcm"
	"tradebot-backend/internal/infrastructure/oracle"
	"tradebot-backend/internal/infrastructure/upbit"
	"tradebot-backend/internal/repository"
	"tradebot-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Trade ledger: Postgres when configured, in-memory otherwise.
	var ledger domain.TradeLedger
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfigFromEnv())
		if err != nil {
			log.Fatalf("❌ Database: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("❌ Migration: %v", err)
		}
		ledger = repository.NewPostgresLedger(pool)
		log.Println("✓ Postgres ledger ready")
	} else {
		ledger = repository.NewInMemoryLedger()
		log.Println("⚠️ DATABASE_URL not set, trades are kept in memory only")
	}

	// 2. Exchange gateway with websocket price cache.
	restClient := upbit.NewClient(cfg.ExchangeRestURL)
	tradingClient := upbit.NewTradingClient(cfg.AccessKey, cfg.SecretKey, cfg.ExchangeRestURL)
	cache := upbit.NewPriceCache(0)
	gateway := upbit.NewGateway(restClient, tradingClient, cache)

	// 3. Signal oracle, disabled when no model file is configured.
	var signalOracle domain.SignalOracle = oracle.Disabled{}
	if cfg.ModelPath != "" {
		model, err := oracle.NewModel(cfg.ModelPath)
		if err != nil {
			log.Printf("⚠️ Model load failed, predictions disabled: %v", err)
		} else {
			defer model.Close()
			signalOracle = model
			log.Printf("✓ Model loaded from %s", cfg.ModelPath)
		}
	} else {
		log.Println("⚠️ MODEL_PATH not set, predictions disabled")
	}

	// 4. Push notifications.
	fcmClient, err := fcm.NewClient()
	if err != nil {
		log.Printf("⚠️ FCM unavailable: %v", err)
		fcmClient = nil
	}
	tokenRepo := repository.NewTokenRepository()
	tokenRepo.SeedTokens(cfg.DeviceTokens, time.Now().UnixMilli())
	notifier := usecase.NewNotifier(fcmClient, tokenRepo)

	// 5. Engine state and policies.
	positions := usecase.NewPositionStore()
	watchlist := usecase.NewWatchlist(cfg.InitialTickers)
	cooldowns := usecase.NewCooldownGate(cfg.RebuyThreshold)
	risk := usecase.NewRiskManager(gateway, cfg.MaxDrawdown)
	sizer := &usecase.PositionSizer{
		TradeAmount:      cfg.TradeAmount,
		MinOrderNotional: cfg.MinOrderNotional,
		MaxPositionShare: cfg.MaxPositionShare,
		UseDynamic:       cfg.UseDynamicSizing,
	}

	recStore := repository.NewInMemoryRecommendationStore()
	scanner := usecase.NewScanner(gateway, signalOracle, ledger, recStore,
		cfg.ScanBatchSize, cfg.ScanTopN, cfg.MinPriceFilter)
	if err := scanner.RefreshMarkets(); err != nil {
		log.Printf("⚠️ Market list refresh failed: %v", err)
	}

	reconciler := usecase.NewReconciler(gateway, ledger, positions, watchlist)

	engine := usecase.NewEngine(usecase.EngineDeps{
		Gateway:    gateway,
		Ledger:     ledger,
		Oracle:     signalOracle,
		Positions:  positions,
		Watchlist:  watchlist,
		Cooldowns:  cooldowns,
		Risk:       risk,
		Sizer:      sizer,
		Scanner:    scanner,
		Reconciler: reconciler,
		Notifier:   notifier,

		EntryParams: usecase.EntryParams{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			MinPriceFilter:      cfg.MinPriceFilter,
			MinVolumeFilter:     cfg.MinVolumeFilter,
			BaseTrendLimit:      -0.03,
		},
		ExitParams: usecase.ExitParams{
			TargetProfit:       cfg.TargetProfit,
			StopLoss:           cfg.StopLoss,
			TrailingActivation: cfg.TrailingActivation,
			TrailingDistance:   cfg.TrailingDistance,
			FeeRate:            cfg.FeeRate,
			UseNetProfit:       cfg.UseNetProfit,
			UseDynamicTarget:   cfg.UseDynamicTarget,
		},

		TradeAmount:      cfg.TradeAmount,
		SellMinNotional:  cfg.SellMinNotional,
		BaseTicker:       cfg.BaseTicker,
		RetrainThreshold: cfg.RetrainThreshold,
		RetrainFunc: func() {
			// Retraining runs in the offline pipeline against the trades
			// table, the engine only signals that enough data accrued.
			log.Println("🎓 Retrain checkpoint reached, offline pipeline will pick it up")
		},

		TickInterval: cfg.TickInterval,
		ScanInterval: cfg.ScanInterval,
	})

	// 6. Websocket ticker stream feeding the price cache. Subscribes to
	// the watchlist plus any recovered position on each (re)connect.
	// Bare tickers only, the stream converts them to market codes.
	stream := upbit.NewTickerStream(cfg.ExchangeWsURL, cache, func() []string {
		return append(watchlist.List(), positions.Tickers()...)
	})
	go stream.Run(ctx)

	// 7. Prometheus metrics.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("✓ Metrics on %s/metrics", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("⚠️ Metrics server: %v", err)
		}
	}()

	engine.Start()
	notifier.NotifyStartup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutting down")
	engine.Stop()
	cancel()
}
