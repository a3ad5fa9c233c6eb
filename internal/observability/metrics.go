package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picai",
		Name:      "faces_detected_total",
		Help:      "Total number of faces kept after detection filtering",
	}, []string{"account_id"})

	FacesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picai",
		Name:      "faces_indexed_total",
		Help:      "Total number of faces indexed into remote collections",
	})

	FacesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picai",
		Name:      "faces_matched_total",
		Help:      "Total number of match suggestions produced",
	}, []string{"level"})

	CollectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picai",
		Name:      "collections_created_total",
		Help:      "Total number of face collections created",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "picai",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "picai",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
