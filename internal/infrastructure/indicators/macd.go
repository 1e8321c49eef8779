package indicators

type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes MACD line, signal line and histogram.
// Standard parameters are fast=12, slow=26, signal=9.
func CalculateMACD(closes []float64, fast, slow, signal int) MACDResult {
	length := len(closes)
	macd := make([]float64, length)
	sig := make([]float64, length)
	hist := make([]float64, length)

	if length < slow {
		return MACDResult{macd, sig, hist}
	}

	fastEma := CalculateEMA(closes, fast)
	slowEma := CalculateEMA(closes, slow)

	for i := slow - 1; i < length; i++ {
		macd[i] = fastEma[i] - slowEma[i]
	}

	// Signal EMA runs over the MACD line starting where it becomes valid.
	valid := macd[slow-1:]
	sigValid := CalculateEMA(valid, signal)
	for i, v := range sigValid {
		sig[slow-1+i] = v
	}

	for i := 0; i < length; i++ {
		hist[i] = macd[i] - sig[i]
	}

	return MACDResult{MACD: macd, Signal: sig, Histogram: hist}
}
