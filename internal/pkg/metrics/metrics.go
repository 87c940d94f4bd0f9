package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_total_requests",
		Help: "Total requests to the HTTP",
	},
		[]string{"method", "path", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration",
		Help: "Duration of HTTP requests",
	},
		[]string{"method", "path"},
	)

	// outbound calls to the fulfilment backend
	SellerRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seller_requests_total",
		Help: "Total calls to the Seller API by operation and outcome",
	},
		[]string{"operation", "outcome"},
	)
	SellerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "seller_request_duration",
		Help: "Duration of Seller API calls",
	},
		[]string{"operation"},
	)

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notifications received by event type and result",
	},
		[]string{"event_type", "result"},
	)

	ReconciliationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_failures_total",
		Help: "Responses that diverged from the buyer request",
	},
		[]string{"aggregate"},
	)

	// for internal/consumer/workers
	MessagesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_processed_total",
		Help: "Total number of processed messages",
	},
		[]string{"status"},
	)
	MessageLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "consumer_message_latency",
		Help: "Seconds between a notification being produced and being applied",
	})
	ConsumerLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "consumer_lag",
		Help: "Messages behind the high watermark",
	},
		[]string{"topic", "partition"},
	)

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})
	CacheResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "cache_response_time",
		Help: "Duration of cache response",
	},
		[]string{"operation"},
	)

	StoreResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "store_response_time",
		Help: "Duration of document store calls",
	},
		[]string{"backend", "operation"},
	)
	StoreUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "store_up",
		Help: "1 if the document store is reachable, 0 if not",
	})
	StoreTransientErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_transient_err_total",
		Help: "Total number of recoverable store hiccups",
	})
)
