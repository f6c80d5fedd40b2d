package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Persistence Metrics
var (
	// EntryWritesTotal tracks successful desktop-entry writes to the user directory
	EntryWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autostart_entry_writes_total",
			Help: "Successful desktop-entry writes to the user directory",
		},
	)

	// EntryWriteFailuresTotal tracks failed desktop-entry writes (dirty state is retained)
	EntryWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autostart_entry_write_failures_total",
			Help: "Failed desktop-entry writes, retried on the next mutation or flush",
		},
	)

	// RedundantCollapsesTotal tracks user overrides deleted because they matched the system copy
	RedundantCollapsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autostart_redundant_collapses_total",
			Help: "User overrides removed because they became identical to the system entry",
		},
	)

	// SaveReschedulesTotal tracks debounce timer re-arms caused by mutation bursts
	SaveReschedulesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autostart_save_reschedules_total",
			Help: "Debounce timer re-arms within the save window",
		},
	)
)

// Watcher Metrics
var (
	// WatchEventsTotal tracks filesystem observations fed to the resolver by directory position
	WatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autostart_watch_events_total",
			Help: "Filesystem observations fed to the overlay resolver by directory position",
		},
		[]string{"position"},
	)

	// SuppressedEventsTotal tracks self-write watcher notifications swallowed by the resolver
	SuppressedEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autostart_suppressed_events_total",
			Help: "Watcher notifications swallowed because they were caused by our own write",
		},
	)
)

// Registry Metrics
var (
	// RegisteredEntries tracks the number of entries currently in the registry
	RegisteredEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autostart_registered_entries",
			Help: "Number of autostart entries currently registered",
		},
	)
)
