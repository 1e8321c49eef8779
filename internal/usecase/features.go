package usecase

import (
	"errors"
	"time"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

// ErrDataInsufficient is returned when there are too few candles for
// the indicator windows.
var ErrDataInsufficient = errors.New("insufficient candle data for feature extraction")

// minFeatureCandles is the shortest history the indicator set needs.
const minFeatureCandles = 30

// ExtractFeatures computes the model feature vector from 1-minute candles,
// oldest first. Fields that need more history than available fall back to
// neutral values.
func ExtractFeatures(candles []domain.Candle, now time.Time) (*domain.FeatureVector, error) {
	if len(candles) < minFeatureCandles {
		return nil, ErrDataInsufficient
	}

	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}
	price := closes[n-1]

	rsi := indicators.CalculateRSI(closes, 14)
	macd := indicators.CalculateMACD(closes, 12, 26, 9)
	bb := indicators.CalculateBollingerBands(closes, 20, 2)
	ema9 := indicators.CalculateEMA(closes, 9)
	ema21 := indicators.CalculateEMA(closes, 21)
	atr := indicators.CalculateATR(highs, lows, closes, 14)

	f := &domain.FeatureVector{
		RSI:        rsi[n-1],
		MACD:       macd.MACD[n-1],
		MACDSignal: macd.Signal[n-1],
		BBPosition: bb.PositionAt(n-1, price),
		EMA9:       ema9[n-1],
		EMA21:      ema21[n-1],
		ATR:        atr[n-1],
		HourOfDay:  float64(now.Hour()),
		DayOfWeek:  float64((int(now.Weekday()) + 6) % 7), // Monday = 0
	}

	// Volume ratio against the 20-bar mean.
	volumeMA := indicators.Average(volumes[n-20:])
	if volumeMA > 0 {
		f.VolumeRatio = volumes[n-1] / volumeMA
	} else {
		f.VolumeRatio = 1.0
	}

	// Price changes, 5 and 15 bars back.
	if closes[n-5] > 0 {
		f.PriceChange5m = (price - closes[n-5]) / closes[n-5]
	}
	if n >= 15 && closes[n-15] > 0 {
		f.PriceChange15m = (price - closes[n-15]) / closes[n-15]
	}

	// Lagged momentum fields, 5 bars back.
	f.RSIPrev5m = rsi[n-5]
	f.RSIChange = f.RSI - f.RSIPrev5m
	f.VolumeTrend = indicators.VolumeTrend(volumes)
	f.BBPositionPrev5m = bb.PositionAt(n-5, closes[n-5])

	return f, nil
}
