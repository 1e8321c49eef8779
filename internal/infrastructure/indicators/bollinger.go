package indicators

import "math"

type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// CalculateBollingerBands computes the Bollinger Bands over a simple MA.
func CalculateBollingerBands(closes []float64, period int, multiplier float64) BollingerBands {
	length := len(closes)
	upper := make([]float64, length)
	middle := make([]float64, length)
	lower := make([]float64, length)

	if length < period {
		return BollingerBands{upper, middle, lower}
	}

	for i := period - 1; i < length; i++ {
		sum := 0.0
		for j := 0; j < period; j++ {
			sum += closes[i-j]
		}
		ma := sum / float64(period)
		middle[i] = ma

		sumSqDiff := 0.0
		for j := 0; j < period; j++ {
			diff := closes[i-j] - ma
			sumSqDiff += diff * diff
		}
		stdDev := math.Sqrt(sumSqDiff / float64(period))

		upper[i] = ma + (multiplier * stdDev)
		lower[i] = ma - (multiplier * stdDev)
	}

	return BollingerBands{Upper: upper, Middle: middle, Lower: lower}
}

// PositionAt returns where price sits within the bands at index i,
// 0 at the lower band and 1 at the upper band. Degenerate bands map to 0.5.
func (b BollingerBands) PositionAt(i int, price float64) float64 {
	width := b.Upper[i] - b.Lower[i]
	if width <= 0 {
		return 0.5
	}
	return (price - b.Lower[i]) / width
}
