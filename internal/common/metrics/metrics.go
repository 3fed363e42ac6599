// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_mutations_total",
			Help: "Local mutations by operation and outcome (synced, local_only, rolled_back, failed)",
		},
		[]string{"operation", "outcome"},
	)

	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_rollbacks_total",
			Help: "Optimistic mutations reverted after a remote failure",
		},
		[]string{"operation"},
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobtracker_realtime_events_total",
			Help: "Realtime change events received, by type and whether they changed local state",
		},
		[]string{"event_type", "applied"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobtracker_remote_call_duration_seconds",
			Help:    "Duration of remote backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	Online = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobtracker_online",
			Help: "1 when the remote backend is reachable",
		},
	)
)

// SetOnline mirrors the coordinator's connectivity flag.
func SetOnline(online bool) {
	if online {
		Online.Set(1)
		return
	}
	Online.Set(0)
}
