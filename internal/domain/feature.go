package domain

// FeatureVector holds the 16 model inputs computed from recent candles.
// Field order matches the trained model's input layout.
type FeatureVector struct {
	RSI              float64 `json:"rsi"`
	MACD             float64 `json:"macd"`
	MACDSignal       float64 `json:"macdSignal"`
	BBPosition       float64 `json:"bbPosition"` // 0 = lower band, 1 = upper band
	VolumeRatio      float64 `json:"volumeRatio"`
	PriceChange5m    float64 `json:"priceChange5m"`
	PriceChange15m   float64 `json:"priceChange15m"`
	EMA9             float64 `json:"ema9"`
	EMA21            float64 `json:"ema21"`
	ATR              float64 `json:"atr"`
	HourOfDay        float64 `json:"hourOfDay"`
	DayOfWeek        float64 `json:"dayOfWeek"`
	RSIChange        float64 `json:"rsiChange"`
	VolumeTrend      float64 `json:"volumeTrend"`
	RSIPrev5m        float64 `json:"rsiPrev5m"`
	BBPositionPrev5m float64 `json:"bbPositionPrev5m"`
}

// FeatureCount is the model input width.
const FeatureCount = 16

// Slice returns the features in model input order.
func (f *FeatureVector) Slice() []float64 {
	return []float64{
		f.RSI, f.MACD, f.MACDSignal, f.BBPosition,
		f.VolumeRatio, f.PriceChange5m, f.PriceChange15m,
		f.EMA9, f.EMA21, f.ATR,
		f.HourOfDay, f.DayOfWeek,
		f.RSIChange, f.VolumeTrend,
		f.RSIPrev5m, f.BBPositionPrev5m,
	}
}

// TrendUp reports whether the short EMA is above the long EMA.
func (f *FeatureVector) TrendUp() bool {
	return f.EMA9 > f.EMA21
}
