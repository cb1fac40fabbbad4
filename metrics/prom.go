package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	PasteListed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_listed_total",
		Help: "no. of creator listings served",
	})
	SweepCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_sweep_cycles_total",
		Help: "no. of expiration sweep passes",
	})
	SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_sweep_deleted_total",
		Help: "no. of pastes removed by the sweeper",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snipbin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

func Init() {
}
