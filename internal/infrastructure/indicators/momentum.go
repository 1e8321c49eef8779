package indicators

// ChangeRate returns the fractional price change over the last `lookback`
// candles, comparing the final close against the close lookback bars earlier.
func ChangeRate(closes []float64, lookback int) float64 {
	n := len(closes)
	if n < lookback+1 {
		return 0
	}
	base := closes[n-1-lookback]
	if base == 0 {
		return 0
	}
	return (closes[n-1] - base) / base
}

// VolumeTrend compares the mean of the last 5 volumes against the 5 before
// them, as a fractional change. Returns 0 with fewer than 10 samples.
func VolumeTrend(volumes []float64) float64 {
	n := len(volumes)
	if n < 10 {
		return 0
	}
	recent := Average(volumes[n-5:])
	prev := Average(volumes[n-10 : n-5])
	if prev <= 0 {
		return 0
	}
	return (recent - prev) / prev
}

// Average returns the mean of data, 0 for an empty slice.
func Average(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
