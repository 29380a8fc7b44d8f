// Package monitoring exposes Prometheus metrics and a health endpoint for
// the trading session.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daytrader_trades_total",
			Help: "Entry orders that reached a protected terminal state",
		},
		[]string{"symbol", "side"},
	)

	ordersRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daytrader_orders_rejected_total",
			Help: "Entry orders rejected, canceled, expired, or timed out",
		},
		[]string{"symbol", "reason"},
	)

	unprotectedPositionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daytrader_unprotected_positions_total",
			Help: "Filled entries whose trailing stop could not be placed",
		},
		[]string{"symbol"},
	)

	accountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "daytrader_account_equity",
			Help: "Account equity at the last snapshot",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "daytrader_open_positions",
			Help: "Open position count at the last snapshot",
		},
	)

	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "daytrader_cycle_duration_seconds",
			Help:    "Duration of one full symbol evaluation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daytrader_errors_total",
			Help: "Errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(ordersRejectedTotal)
	prometheus.MustRegister(unprotectedPositionsTotal)
	prometheus.MustRegister(accountEquity)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(cycleDuration)
	prometheus.MustRegister(errorsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTrade counts a protected trade.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordOrderRejected counts an abandoned entry attempt.
func RecordOrderRejected(symbol, reason string) {
	ordersRejectedTotal.WithLabelValues(symbol, reason).Inc()
}

// RecordUnprotectedPosition counts the dangerous failure mode: a filled entry
// with no protective order.
func RecordUnprotectedPosition(symbol string) {
	unprotectedPositionsTotal.WithLabelValues(symbol).Inc()
}

// UpdateAccount refreshes the account gauges.
func UpdateAccount(equity float64, positions int) {
	accountEquity.Set(equity)
	openPositions.Set(float64(positions))
}

// ObserveCycle records one cycle's duration.
func ObserveCycle(seconds float64) {
	cycleDuration.Observe(seconds)
}

// RecordError counts an error by category.
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
