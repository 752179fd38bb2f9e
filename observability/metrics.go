package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type marketMetrics struct {
	salesListed   *prometheus.CounterVec
	tradesSettled prometheus.Counter
	salesClosed   *prometheus.CounterVec
	bidsPlaced    prometheus.Counter
	bidsRemoved   prometheus.Counter
	offersMade    prometheus.Counter
}

type rpcMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	marketMetricsOnce sync.Once
	marketRegistry    *marketMetrics

	rpcMetricsOnce sync.Once
	rpcRegistry    *rpcMetrics
)

// MarketMetrics returns the lazily-initialised registry tracking marketplace
// activity.
func MarketMetrics() *marketMetrics {
	marketMetricsOnce.Do(func() {
		marketRegistry = &marketMetrics{
			salesListed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "sales_listed_total",
				Help:      "Count of sale records opened, segmented by sale kind.",
			}, []string{"kind"}),
			tradesSettled: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "trades_settled_total",
				Help:      "Count of settlements executed across all sale kinds.",
			}),
			salesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "sales_closed_total",
				Help:      "Count of sales closed without settlement, segmented by sale kind.",
			}, []string{"kind"}),
			bidsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "bids_placed_total",
				Help:      "Count of auction bids accepted, including replacements.",
			}),
			bidsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "bids_removed_total",
				Help:      "Count of auction bids withdrawn and refunded.",
			}),
			offersMade: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "market",
				Name:      "offers_made_total",
				Help:      "Count of unsolicited offers recorded with escrow captured.",
			}),
		}
		prometheus.MustRegister(
			marketRegistry.salesListed,
			marketRegistry.tradesSettled,
			marketRegistry.salesClosed,
			marketRegistry.bidsPlaced,
			marketRegistry.bidsRemoved,
			marketRegistry.offersMade,
		)
	})
	return marketRegistry
}

// RPCMetrics returns the registry tracking JSON-RPC request activity.
func RPCMetrics() *rpcMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &rpcMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "curio",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method.",
			}, []string{"method"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "curio",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(rpcRegistry.requests, rpcRegistry.latency)
	})
	return rpcRegistry
}

// Observe records one served RPC request.
func (m *rpcMetrics) Observe(method string, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.requests.WithLabelValues(method).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}
