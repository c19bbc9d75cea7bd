package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	bidsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Bid placement attempts by result",
		},
		[]string{"result"},
	)

	auctionsClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_closed_total",
			Help: "Auctions processed by the closer by outcome",
		},
		[]string{"outcome"},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_payments_total",
			Help: "Payment attempts by final status",
		},
		[]string{"status"},
	)

	txRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_tx_retries_total",
			Help: "Ledger transactions retried after a conflict or storage failure",
		},
	)

	reconcileFindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_reconcile_findings_total",
			Help: "Problems found by the settlement reconciler by kind",
		},
		[]string{"kind"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auction_sweep_duration_seconds",
			Help:    "Duration of closer sweeps",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(bidsTotal)
	prometheus.MustRegister(auctionsClosedTotal)
	prometheus.MustRegister(paymentsTotal)
	prometheus.MustRegister(txRetriesTotal)
	prometheus.MustRegister(reconcileFindingsTotal)
	prometheus.MustRegister(sweepDuration)
}

// MetricsMiddleware records request counts and latency per route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordBid(result string) {
	bidsTotal.WithLabelValues(result).Inc()
}

func RecordAuctionClosed(outcome string) {
	auctionsClosedTotal.WithLabelValues(outcome).Inc()
}

func RecordPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}

func RecordTxRetry() {
	txRetriesTotal.Inc()
}

func RecordReconcileFinding(kind string) {
	reconcileFindingsTotal.WithLabelValues(kind).Inc()
}

func ObserveSweep(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}
