package chainpay

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "chainpay"
)

var (
	scanPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "scan_passes_total",
			Help:      "block-triggered order scan passes",
		},
	)
	pendingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "pending_orders",
			Help:      "orders pending at the last scan pass",
		},
	)
	orderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "order_outcomes_total",
			Help:      "terminal order outcomes",
		},
		[]string{"outcome"},
	)
	ordersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "orders_registered_total",
			Help:      "purchase orders registered",
		},
	)
)

func init() {
	prometheus.MustRegister(
		scanPasses,
		pendingOrders,
		orderOutcomes,
		ordersRegistered,
	)
}

func metricScanPass(pending int) {
	scanPasses.Inc()
	pendingOrders.Set(float64(pending))
}

func metricOrderOutcome(outcome string) {
	orderOutcomes.WithLabelValues(outcome).Inc()
}

func metricOrderRegistered() {
	ordersRegistered.Inc()
}
