package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	metricQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "queue_depth",
		Help:      "Tasks currently waiting in the FIFO queue",
	})

	metricTasksExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "tasks_executed_total",
		Help:      "Tasks executed by the worker",
	})

	metricTasksDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "tasks_discarded_total",
		Help:      "Tasks dropped at dequeue because they were cancelled",
	})

	metricTaskPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "task_panics_total",
		Help:      "Panics recovered at the worker boundary",
	})

	metricCacheEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "model_cache_entries",
		Help:      "Model resources currently cached",
	})

	metricEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "model_evictions_total",
		Help:      "Idle model resources evicted by the sweeper",
	})

	metricDeferredFrees = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "scheduler",
		Name:      "deferred_frees_total",
		Help:      "Force-cleared resources whose release was deferred to the last borrower",
	})
)

func init() {
	prometheus.MustRegister(
		metricQueueDepth,
		metricTasksExecuted,
		metricTasksDiscarded,
		metricTaskPanics,
		metricCacheEntries,
		metricEvictions,
		metricDeferredFrees,
	)
}
