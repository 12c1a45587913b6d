package bridge

import "github.com/prometheus/client_golang/prometheus"

// Registered in init() and served by the promhttp handler the run command
// starts at /metrics.
var (
	mtxCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_commands_total",
			Help: "Commands dispatched, by command name",
		},
		[]string{"command"},
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_orders_total",
			Help: "Order attempts by outcome (filled|denied|rejected|error)",
		},
		[]string{"result"},
	)

	mtxDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_gate_denials_total",
			Help: "Risk gate and per-order validation denials by code",
		},
		[]string{"code"},
	)

	mtxFillRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_fill_retries_total",
			Help: "Retries across alternate fill conventions",
		},
	)

	mtxSlippageAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_slippage_alerts_total",
			Help: "Fills whose slippage exceeded the alert threshold",
		},
	)

	mtxChannelSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_channel_skips_total",
			Help: "Channel operations skipped because the file lock was unavailable",
		},
		[]string{"channel"},
	)

	mtxPanicCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_panic_closes_total",
			Help: "Panic-mode close attempts by result (closed|failed)",
		},
		[]string{"result"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_equity",
			Help: "Account equity at last status publish",
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxCommands,
		mtxOrders,
		mtxDenials,
		mtxFillRetries,
		mtxSlippageAlerts,
		mtxChannelSkips,
		mtxPanicCloses,
		mtxEquity,
	)
}
