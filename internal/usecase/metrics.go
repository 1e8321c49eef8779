package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the trading engine.

// TicksTotal counts completed engine ticks.
var TicksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "engine",
		Name:      "ticks_total",
		Help:      "Total number of completed engine ticks",
	},
)

// OrdersTotal counts executed orders by side and result.
var OrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "engine",
		Name:      "orders_total",
		Help:      "Total number of order attempts",
	},
	[]string{"side", "result"}, // side: buy, sell; result: filled, rejected
)

// OpenPositions tracks the current position count.
var OpenPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradebot",
		Subsystem: "engine",
		Name:      "open_positions",
		Help:      "Current number of open positions",
	},
)

// CurrentDrawdown mirrors the risk manager's last computed drawdown.
var CurrentDrawdown = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradebot",
		Subsystem: "risk",
		Name:      "drawdown_fraction",
		Help:      "Current fractional drawdown from the equity peak",
	},
)

// ScansTotal counts completed scanner batches.
var ScansTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradebot",
		Subsystem: "scanner",
		Name:      "scans_total",
		Help:      "Total number of completed scan batches",
	},
)

// RecordOrder records an order attempt outcome.
func RecordOrder(side string, filled bool) {
	result := "rejected"
	if filled {
		result = "filled"
	}
	OrdersTotal.WithLabelValues(side, result).Inc()
}
