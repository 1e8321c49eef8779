package domain

// Profit class labels produced by the signal model.
const (
	ClassLoss    = 0 // expected move below -0.5%
	ClassNeutral = 1
	ClassProfit  = 2 // expected move above +0.5%
)

// SignalOracle scores a feature vector, returning the predicted profit
// class and the probability assigned to the profit class.
type SignalOracle interface {
	Predict(features *FeatureVector) (class int, confidence float64, err error)
	Ready() bool
}
