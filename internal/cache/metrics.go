package cache

import "github.com/prometheus/client_golang/prometheus"

var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "railji",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Cache lookups by tier and result.",
	},
	[]string{"tier", "result"},
)

// Collectors returns the cache metrics for registration on a Prometheus registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{cacheRequests}
}
