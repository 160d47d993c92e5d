package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenesearch_jobs_processed_total",
		Help: "Total number of search jobs processed, by status",
	}, []string{"status"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenesearch_job_duration_seconds",
		Help:    "Duration of the scene search pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenesearch_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	OffsetsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenesearch_offsets_skipped_total",
		Help: "Total number of requested offsets that produced no frame",
	})

	ScenesMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenesearch_scenes_matched_total",
		Help: "Total number of scenes accepted by the fuzzy matcher",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenesearch_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenesearch_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
