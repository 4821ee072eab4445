package service

import "github.com/prometheus/client_golang/prometheus"

var (
	examEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railji_exam_events_total",
			Help: "Exam attempt lifecycle events by outcome.",
		},
		[]string{"event"},
	)

	examScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "railji_exam_percentage",
			Help:    "Percentage achieved by submitted attempts.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

// Collectors returns the service level metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{examEvents, examScores}
}
