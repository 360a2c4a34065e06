// Package metrics declares the planner's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TaskTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "tasks",
			Name:      "transitions_total",
			Help:      "Explicit task lifecycle actions (complete, skip, snooze).",
		},
		[]string{"action"},
	)

	InstancesSpawned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "recurrence",
			Name:      "instances_spawned_total",
			Help:      "Task instances created from recurring templates.",
		},
		[]string{"trigger"},
	)

	TasksReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "tasks",
			Name:      "reconciled_total",
			Help:      "Tasks whose persisted status was rewritten by a reconciliation pass.",
		},
	)

	TodayBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "planner",
			Subsystem: "dashboard",
			Name:      "today_build_seconds",
			Help:      "Time spent loading and aggregating the today dashboard.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "planner",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)
