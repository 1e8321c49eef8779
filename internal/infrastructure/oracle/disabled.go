package oracle

import "tradebot-backend/internal/domain"

// Disabled is the oracle used when no model file is configured. It predicts
// neutral with zero confidence so only technical rules can trigger entries.
type Disabled struct{}

var _ domain.SignalOracle = Disabled{}

func (Disabled) Predict(*domain.FeatureVector) (int, float64, error) {
	return domain.ClassNeutral, 0, nil
}

func (Disabled) Ready() bool { return false }
