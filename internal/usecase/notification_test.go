package usecase

import (
	"testing"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/repository"
)

// Every notify method must be safe on a nil Notifier and on one whose
// FCM client never initialized.
func TestNotifierNilSafe(t *testing.T) {
	notifiers := map[string]*Notifier{
		"nil notifier":  nil,
		"no fcm client": NewNotifier(nil, repository.NewTokenRepository()),
	}

	for name, n := range notifiers {
		t.Run(name, func(t *testing.T) {
			n.NotifyStartup()
			n.NotifyEntry("XRP", 1000, 100000, "AI+Oversold")
			n.NotifyExit("XRP", 1020, 0.02, "Target Profit (2.0%)")
			n.NotifyDrawdown(0.05)
			n.NotifyRecommendation(domain.Recommendation{Ticker: "XRP", Score: 80})
		})
	}
}
