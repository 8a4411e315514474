// Package metrics exposes Prometheus collectors for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportsTotal counts statement imports by final outcome
	// (succeeded, validation_failed, rate_limited, failed).
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dinarly",
		Subsystem: "import",
		Name:      "imports_total",
		Help:      "Statement imports by outcome.",
	}, []string{"outcome"})

	// RowsTotal counts processed statement rows by outcome (inserted, failed).
	RowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dinarly",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Statement rows by processing outcome.",
	}, []string{"outcome"})

	// ValidationRejections counts uploads rejected by the input validator,
	// labelled with the triggering rule.
	ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dinarly",
		Subsystem: "security",
		Name:      "validation_rejections_total",
		Help:      "Uploads rejected by the input validator.",
	}, []string{"rule"})

	// AuditEvents counts emitted security-audit events by name.
	AuditEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dinarly",
		Subsystem: "security",
		Name:      "audit_events_total",
		Help:      "Security audit events by event name.",
	}, []string{"event"})

	// CorrectionLookups counts learned-correction lookups by result
	// (exact, fuzzy, miss).
	CorrectionLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dinarly",
		Subsystem: "categorization",
		Name:      "correction_lookups_total",
		Help:      "Learned-correction lookups by result.",
	}, []string{"result"})
)
