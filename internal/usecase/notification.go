package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/fcm"
	"tradebot-backend/internal/repository"
)

// notifyCooldown suppresses repeat alerts for the same subject.
const notifyCooldown = 5 * time.Minute

// Notifier pushes trade events to registered devices over FCM.
// A nil Notifier is safe to call and does nothing.
type Notifier struct {
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository

	mu       sync.Mutex
	notified map[string]time.Time
}

func NewNotifier(fcmClient *fcm.Client, tokenRepo *repository.TokenRepository) *Notifier {
	return &Notifier{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		notified:  make(map[string]time.Time),
	}
}

// NotifyStartup pings each registered device individually so a dead
// token surfaces in the logs at boot instead of on the first trade.
func (n *Notifier) NotifyStartup() {
	if n == nil || n.fcmClient == nil || !n.fcmClient.IsEnabled() {
		return
	}
	for _, token := range n.tokenRepo.GetAllTokens() {
		err := n.fcmClient.SendNotification(token, "🤖 Trading Bot Online",
			"Engine started, trade alerts are active.", map[string]string{"type": "startup"})
		if err != nil {
			log.Printf("⚠️ Startup ping failed: %v", err)
		}
	}
}

// NotifyEntry announces a filled buy. Not rate limited, every fill matters.
func (n *Notifier) NotifyEntry(ticker string, price, notional float64, reason string) {
	title := fmt.Sprintf("🚀 %s Bought", ticker)
	body := fmt.Sprintf("Price: %.0f | Amount: %.0f | %s", price, notional, reason)
	n.send(title, body, map[string]string{"ticker": ticker, "type": "entry"}, "")
}

// NotifyExit announces a closed position with its result.
func (n *Notifier) NotifyExit(ticker string, exitPrice, profitRate float64, reason string) {
	emoji := "💰"
	if profitRate <= 0 {
		emoji = "📉"
	}
	title := fmt.Sprintf("%s %s Sold (%+.2f%%)", emoji, ticker, profitRate*100)
	body := fmt.Sprintf("Exit: %.0f | %s", exitPrice, reason)
	n.send(title, body, map[string]string{"ticker": ticker, "type": "exit"}, "")
}

// NotifyDrawdown announces the emergency stop.
func (n *Notifier) NotifyDrawdown(drawdown float64) {
	title := "🛑 Max Drawdown Reached"
	body := fmt.Sprintf("Equity down %.2f%% from peak. Liquidating and stopping.", drawdown*100)
	n.send(title, body, map[string]string{"type": "drawdown"}, "")
}

// NotifyRecommendation announces a new top-ranked scan result. Rate
// limited per ticker so a market leading several cycles alerts once.
func (n *Notifier) NotifyRecommendation(rec domain.Recommendation) {
	title := fmt.Sprintf("🏆 New Pick: %s", rec.Ticker)
	body := fmt.Sprintf("Score: %.0f | Confidence: %.0f%% | Price: %.0f",
		rec.Score, rec.Confidence*100, rec.Price)
	n.send(title, body, map[string]string{"ticker": rec.Ticker, "type": "recommendation"}, "rec:"+rec.Ticker)
}

// send delivers to all registered devices. A non-empty cooldownKey
// suppresses repeats within the cooldown window.
func (n *Notifier) send(title, body string, data map[string]string, cooldownKey string) {
	if n == nil || n.fcmClient == nil || !n.fcmClient.IsEnabled() {
		return
	}
	tokens := n.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		return
	}

	now := time.Now()
	if cooldownKey != "" {
		n.mu.Lock()
		if last, ok := n.notified[cooldownKey]; ok && now.Sub(last) < notifyCooldown {
			n.mu.Unlock()
			return
		}
		n.notified[cooldownKey] = now
		// Drop stale entries while we hold the lock.
		for key, at := range n.notified {
			if now.Sub(at) > notifyCooldown*2 {
				delete(n.notified, key)
			}
		}
		n.mu.Unlock()
	}

	if err := n.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		log.Printf("Error sending notification: %v", err)
	}
}
