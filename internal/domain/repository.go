package domain

import "time"

// Recommendation is a scanner result for one market.
type Recommendation struct {
	Ticker      string    `json:"ticker"`
	Score       float64   `json:"score"` // 0-100 composite
	Confidence  float64   `json:"confidence"`
	Prediction  int       `json:"prediction"` // profit class
	Price       float64   `json:"price"`
	Volume24h   float64   `json:"volume24h"`
	Reasons     []string  `json:"reasons"`
	Recommended bool      `json:"recommended"`
	ScannedAt   time.Time `json:"scannedAt"`
}

// RecommendationStore keeps the latest scanner results.
type RecommendationStore interface {
	SaveRecommendations(recs []Recommendation)
	GetRecommendations() []Recommendation
}
