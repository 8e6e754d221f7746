package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_tasks_scheduled_total",
		Help: "Background tasks scheduled, by type.",
	}, []string{"type"})

	taskCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_tasks_completed_total",
		Help: "Background tasks completed successfully, by type.",
	}, []string{"type"})

	taskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_tasks_failed_total",
		Help: "Background tasks that reached the failed state, by type.",
	}, []string{"type"})

	tasksRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexus_tasks_running",
		Help: "Background tasks currently holding a concurrency slot.",
	})

	tasksDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nexus_tasks_deferred_total",
		Help: "Tasks that found all slots busy at schedule time and stayed pending.",
	})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_task_duration_seconds",
		Help:    "Wall-clock task duration, by type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
)
