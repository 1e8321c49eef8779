package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"tradebot-backend/internal/domain"
)

func TestExtractFeaturesInsufficientData(t *testing.T) {
	_, err := ExtractFeatures(flatCandles(29, 1000, 10), time.Now())
	if !errors.Is(err, ErrDataInsufficient) {
		t.Fatalf("err = %v, want ErrDataInsufficient", err)
	}
}

func TestExtractFeaturesFlatSeries(t *testing.T) {
	now := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC) // a Wednesday
	f, err := ExtractFeatures(flatCandles(60, 1000, 10), now)
	if err != nil {
		t.Fatal(err)
	}

	// Flat prices: no losses pins Wilder RSI at 100, degenerate bands
	// map to the middle, every change is zero.
	if f.RSI != 100 {
		t.Errorf("RSI = %v, want 100", f.RSI)
	}
	if f.BBPosition != 0.5 || f.BBPositionPrev5m != 0.5 {
		t.Errorf("BB positions = %v/%v, want 0.5/0.5", f.BBPosition, f.BBPositionPrev5m)
	}
	if f.PriceChange5m != 0 || f.PriceChange15m != 0 {
		t.Errorf("price changes = %v/%v, want 0/0", f.PriceChange5m, f.PriceChange15m)
	}
	if f.RSIChange != 0 {
		t.Errorf("RSI change = %v, want 0", f.RSIChange)
	}
	if f.VolumeRatio != 1 {
		t.Errorf("volume ratio = %v, want 1", f.VolumeRatio)
	}
	if f.VolumeTrend != 0 {
		t.Errorf("volume trend = %v, want 0", f.VolumeTrend)
	}
	if f.EMA9 != 1000 || f.EMA21 != 1000 {
		t.Errorf("EMAs = %v/%v, want 1000/1000", f.EMA9, f.EMA21)
	}
	if f.HourOfDay != 14 {
		t.Errorf("hour = %v, want 14", f.HourOfDay)
	}
	if f.DayOfWeek != 2 { // Monday = 0
		t.Errorf("day = %v, want 2 for Wednesday", f.DayOfWeek)
	}
}

func TestExtractFeaturesPriceChanges(t *testing.T) {
	candles := flatCandles(60, 1000, 10)
	// Last close 1100, close 5 bars back 1000, 15 bars back 1000.
	candles[59].Close = 1100
	candles[59].High = 1100

	f, err := ExtractFeatures(candles, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f.PriceChange5m-0.1) > 1e-12 {
		t.Errorf("5m change = %v, want 0.1", f.PriceChange5m)
	}
	if math.Abs(f.PriceChange15m-0.1) > 1e-12 {
		t.Errorf("15m change = %v, want 0.1", f.PriceChange15m)
	}
}

func TestExtractFeaturesDirection(t *testing.T) {
	rising := make([]domain.Candle, 60)
	falling := make([]domain.Candle, 60)
	for i := range rising {
		up := 1000 + float64(i)*10
		down := 2000 - float64(i)*10
		rising[i] = domain.Candle{Open: up, High: up + 5, Low: up - 5, Close: up, Volume: 10}
		falling[i] = domain.Candle{Open: down, High: down + 5, Low: down - 5, Close: down, Volume: 10}
	}

	fUp, err := ExtractFeatures(rising, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	fDown, err := ExtractFeatures(falling, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	if fUp.RSI <= fDown.RSI {
		t.Errorf("rising RSI %v should exceed falling RSI %v", fUp.RSI, fDown.RSI)
	}
	if !fUp.TrendUp() {
		t.Error("steadily rising series should have EMA9 above EMA21")
	}
	if fDown.TrendUp() {
		t.Error("steadily falling series should have EMA9 below EMA21")
	}
	if fUp.PriceChange15m <= 0 || fDown.PriceChange15m >= 0 {
		t.Errorf("15m changes = %v/%v, want positive/negative", fUp.PriceChange15m, fDown.PriceChange15m)
	}
	if fUp.MACD <= 0 || fDown.MACD >= 0 {
		t.Errorf("MACD = %v/%v, want positive/negative", fUp.MACD, fDown.MACD)
	}
}

func TestExtractFeaturesVolumeFields(t *testing.T) {
	candles := flatCandles(60, 1000, 10)
	// Last 5 volumes doubled: trend = (20 - 10) / 10 = 1.
	for i := 55; i < 60; i++ {
		candles[i].Volume = 20
	}

	f, err := ExtractFeatures(candles, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f.VolumeTrend-1.0) > 1e-12 {
		t.Errorf("volume trend = %v, want 1", f.VolumeTrend)
	}
	// 20-bar mean = (15*10 + 5*20)/20 = 12.5, ratio = 20/12.5.
	if math.Abs(f.VolumeRatio-1.6) > 1e-12 {
		t.Errorf("volume ratio = %v, want 1.6", f.VolumeRatio)
	}
}

func TestExtractFeaturesLaggedRSI(t *testing.T) {
	candles := flatCandles(60, 1000, 10)
	for i := 56; i < 60; i++ {
		candles[i].Close = 1000 - float64(60-i)*5 // a recent dip
	}

	f, err := ExtractFeatures(candles, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs((f.RSI-f.RSIPrev5m)-f.RSIChange) > 1e-12 {
		t.Errorf("RSIChange %v is not RSI %v minus RSIPrev5m %v", f.RSIChange, f.RSI, f.RSIPrev5m)
	}
	if f.RSIChange >= 0 {
		t.Errorf("RSI change = %v, want negative after a dip", f.RSIChange)
	}
}
