package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	TokenExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "google_token_exchanges_total",
			Help: "Service account token exchanges by outcome",
		},
		[]string{"outcome"},
	)

	SheetAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_appends_total",
			Help: "Sheet row appends by outcome",
		},
		[]string{"outcome"},
	)

	NotificationDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Conversion event forwarding attempts by status",
		},
		[]string{"status"},
	)

	OrderSubmissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_submission_duration_seconds",
			Help:    "Duration of the required order path (token exchange and append)",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics on the default registry.
func Register() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(TokenExchangesTotal)
	prometheus.MustRegister(SheetAppendsTotal)
	prometheus.MustRegister(NotificationDeliveriesTotal)
	prometheus.MustRegister(OrderSubmissionDuration)
}
