package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	// sessionsTotal counts processed sessions by result: "ok", "rejected", "error".
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracetree_sessions_total",
		Help: "Sessions processed by result",
	}, []string{"result"})

	reconstructDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracetree_reconstruct_duration_seconds",
		Help:    "Time spent reconstructing one session tree",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})

	treeNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracetree_tree_nodes",
		Help:    "Nodes per reconstructed session tree",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	treeDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracetree_tree_depth",
		Help:    "Depth per reconstructed session tree",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})
)
