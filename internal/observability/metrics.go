package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhotosUploaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gallery",
		Name:      "photos_uploaded_total",
		Help:      "Photo uploads by outcome",
	}, []string{"result"})

	Enrichment = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gallery",
		Name:      "enrichment_total",
		Help:      "Face enrichment attempts by outcome",
	}, []string{"result"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gallery",
		Name:      "search_duration_seconds",
		Help:      "Duration of face search reconciliation",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	MatchesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gallery",
		Name:      "search_matches_dropped_total",
		Help:      "Recognizer matches dropped because the photo no longer exists",
	})

	RecognitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gallery",
		Name:      "recognition_request_duration_seconds",
		Help:      "Duration of calls to the face recognition service",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gallery",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gallery",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
