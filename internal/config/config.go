package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the trading engine.
type Config struct {
	// Trading parameters
	TradeAmount         float64 // quote currency per entry
	TargetProfit        float64 // e.g. 0.02 = 2%
	StopLoss            float64 // positive fraction, e.g. 0.02
	RebuyThreshold      float64 // cooldown release distance
	ConfidenceThreshold float64
	RetrainThreshold    int
	MaxDrawdown         float64
	TrailingActivation  float64
	TrailingDistance    float64
	FeeRate             float64
	UseNetProfit        bool
	UseDynamicTarget    bool
	UseDynamicSizing    bool
	MinOrderNotional    float64 // exchange minimum for buys
	SellMinNotional     float64 // minimum estimated proceeds for sells
	MinPriceFilter      float64
	MinVolumeFilter     float64 // minimum 24h quote volume
	MaxPositionShare    float64 // balance fraction cap for dynamic sizing

	// Loop intervals
	TickInterval time.Duration
	ScanInterval time.Duration

	// Watchlist
	BaseTicker     string // trend reference market, e.g. "BTC"
	InitialTickers []string
	ScanBatchSize  int
	ScanTopN       int

	// Exchange
	ExchangeRestURL string
	ExchangeWsURL   string
	AccessKey       string
	SecretKey       string

	// Model
	ModelPath string

	// Infrastructure
	DatabaseURL  string
	MetricsAddr  string
	DeviceTokens []string
}

// Load reads .env if present, then assembles the configuration from
// the environment with the same defaults the engine was tuned with.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional, real deployments set the environment directly
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		TradeAmount:         getEnvFloat("TRADE_AMOUNT", 10000),
		TargetProfit:        getEnvFloat("TARGET_PROFIT", 0.02),
		StopLoss:            getEnvFloat("STOP_LOSS", 0.02),
		RebuyThreshold:      getEnvFloat("REBUY_THRESHOLD", 0.015),
		ConfidenceThreshold: getEnvFloat("MODEL_CONFIDENCE_THRESHOLD", 0.7),
		RetrainThreshold:    getEnvInt("RETRAIN_THRESHOLD", 10),
		MaxDrawdown:         getEnvFloat("MAX_DRAWDOWN", 0.05),
		TrailingActivation:  getEnvFloat("TRAILING_ACTIVATION", 0.015),
		TrailingDistance:    getEnvFloat("TRAILING_DISTANCE", 0.01),
		FeeRate:             getEnvFloat("FEE_RATE", 0.0005),
		UseNetProfit:        getEnvBool("USE_NET_PROFIT", true),
		UseDynamicTarget:    getEnvBool("USE_DYNAMIC_TARGET", false),
		UseDynamicSizing:    getEnvBool("USE_DYNAMIC_SIZING", false),
		MinOrderNotional:    getEnvFloat("MIN_ORDER_NOTIONAL", 6002),
		SellMinNotional:     getEnvFloat("SELL_MIN_NOTIONAL", 5500),
		MinPriceFilter:      getEnvFloat("MIN_PRICE_FILTER", 100),
		MinVolumeFilter:     getEnvFloat("MIN_VOLUME_FILTER", 100_000_000),
		MaxPositionShare:    getEnvFloat("MAX_POSITION_SIZE", 0.3),

		TickInterval: getEnvDuration("TICK_INTERVAL", 10*time.Second),
		ScanInterval: getEnvDuration("SCAN_INTERVAL", 30*time.Second),

		BaseTicker:     getEnv("BASE_TICKER", "BTC"),
		InitialTickers: splitList(getEnv("TICKERS", "BTC")),
		ScanBatchSize:  getEnvInt("SCAN_BATCH_SIZE", 50),
		ScanTopN:       getEnvInt("SCAN_TOP_N", 5),

		ExchangeRestURL: getEnv("EXCHANGE_REST_URL", "https://api.upbit.com"),
		ExchangeWsURL:   getEnv("EXCHANGE_WS_URL", "wss://api.upbit.com/websocket/v1"),
		AccessKey:       os.Getenv("UPBIT_ACCESS_KEY"),
		SecretKey:       os.Getenv("UPBIT_SECRET_KEY"),

		ModelPath: os.Getenv("MODEL_PATH"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":9091"),
		DeviceTokens: splitList(os.Getenv("FCM_DEVICE_TOKENS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TradeAmount <= 0 {
		return fmt.Errorf("TRADE_AMOUNT must be positive, got %v", c.TradeAmount)
	}
	if c.StopLoss <= 0 || c.StopLoss >= 1 {
		return fmt.Errorf("STOP_LOSS must be in (0, 1), got %v", c.StopLoss)
	}
	if c.MaxDrawdown <= 0 || c.MaxDrawdown >= 1 {
		return fmt.Errorf("MAX_DRAWDOWN must be in (0, 1), got %v", c.MaxDrawdown)
	}
	if c.TrailingDistance >= c.TrailingActivation {
		return fmt.Errorf("TRAILING_DISTANCE (%v) must be below TRAILING_ACTIVATION (%v)",
			c.TrailingDistance, c.TrailingActivation)
	}
	if c.TickInterval < time.Second {
		return fmt.Errorf("TICK_INTERVAL too short: %v", c.TickInterval)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
