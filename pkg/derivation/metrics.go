package derivation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stem outcomes recorded in crosstem_stem_requests_total.
const (
	outcomeRoot     = "root"
	outcomeIdentity = "identity"
	outcomeOOV      = "oov"
	outcomeDisabled = "disabled"
)

var (
	stemRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosstem_stem_requests_total",
		Help: "Stem calls by language and outcome",
	}, []string{"language", "outcome"})

	stemCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosstem_stem_cache_hits_total",
		Help: "Stem calls answered from the result cache",
	}, []string{"language"})

	graphLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crosstem_graph_load_duration_seconds",
		Help:    "Time to load and freeze a language's derivation graph",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"language"})

	graphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crosstem_graph_nodes",
		Help: "Word forms in the loaded derivation graph",
	}, []string{"language"})
)
