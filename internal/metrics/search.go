package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "mapsearch"

// Search and listing Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of playlist searches",
		},
		[]string{"order", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end playlist search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"order"},
	)

	IndexQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_query_duration_seconds",
			Help:      "Search index query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"status"},
	)

	SortDowngradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_sort_downgrades_total",
			Help:      "Relevance searches served by Latest for lack of free text",
		},
	)

	ReconcileDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_reconcile_dropped_total",
			Help:      "Index hits without a matching relational record",
		},
	)

	ListingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_requests_total",
			Help:      "Total number of keyset and by-user listings",
		},
		[]string{"kind", "status"},
	)

	ReindexDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_documents_total",
			Help:      "Documents written to or removed from the search index",
		},
		[]string{"op"}, // "upsert" / "delete"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexQueryDuration)
	prometheus.MustRegister(SortDowngradesTotal)
	prometheus.MustRegister(ReconcileDroppedTotal)
	prometheus.MustRegister(ListingRequestsTotal)
	prometheus.MustRegister(ReindexDocumentsTotal)
	searchMetricsRegistered = true
}

// StatusLabel maps an error to the status label of request counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
