package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lazyai",
		Subsystem: "bot",
		Name:      "commands_total",
		Help:      "Total commands received, by operation (unknown included).",
	}, []string{"operation"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lazyai",
		Subsystem: "bot",
		Name:      "rejections_total",
		Help:      "Commands rejected before launch, by reason.",
	}, []string{"reason"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lazyai",
		Subsystem: "bot",
		Name:      "agent_runs_total",
		Help:      "Completed agent invocations, by stage and status.",
	}, []string{"stage", "status"})

	runDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lazyai",
		Subsystem: "bot",
		Name:      "agent_run_duration_seconds",
		Help:      "Agent invocation duration in seconds, by stage.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"stage"})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lazyai",
		Subsystem: "bot",
		Name:      "active_runs",
		Help:      "Number of agent invocations currently in flight.",
	})
)
