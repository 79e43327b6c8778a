package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tmarche/fabula/pkg/domain"
)

const namespace = "fabula"

// Metrics holds the Prometheus collectors for one engine. Label cardinality
// follows the story graph (node and option ids), which is authored content
// and therefore bounded.
type Metrics struct {
	NodeVisits      *prometheus.CounterVec
	Choices         *prometheus.CounterVec
	Branches        *prometheus.CounterVec
	StackOps        *prometheus.CounterVec
	Resets          prometheus.Counter
	Checkpoints     *prometheus.CounterVec
	ConditionErrors *prometheus.CounterVec
	PersistOps      *prometheus.CounterVec
	PersistBytes    *prometheus.HistogramVec
}

// NewMetrics builds the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the usual global registry, or a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_visits_total",
				Help:      "Total node entries by node id",
			},
			[]string{"node_id"},
		),
		Choices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "choices_total",
				Help:      "Committed choices by origin node",
			},
			[]string{"node_id"},
		),
		Branches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "branches_total",
				Help:      "Executed branch options by id",
			},
			[]string{"option_id"},
		),
		StackOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stack_operations_total",
				Help:      "Undo and redo attempts by outcome",
			},
			[]string{"op", "applied"},
		),
		Resets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resets_total",
				Help:      "Engine resets to the initial node",
			},
		),
		Checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoints_total",
				Help:      "Captured checkpoints by trigger",
			},
			[]string{"trigger"},
		),
		ConditionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "condition_errors_total",
				Help:      "Custom predicates that errored or panicked",
			},
			[]string{"predicate"},
		),
		PersistOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_operations_total",
				Help:      "Completed save and load operations",
			},
			[]string{"op"},
		),
		PersistBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persistence_bytes",
				Help:      "Envelope sizes moved through storage",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(
		m.NodeVisits,
		m.Choices,
		m.Branches,
		m.StackOps,
		m.Resets,
		m.Checkpoints,
		m.ConditionErrors,
		m.PersistOps,
		m.PersistBytes,
	)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors. Combine
// with application hooks via MergeHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			m.Choices.WithLabelValues(e.NodeID).Inc()
		},
		OnBranch: func(ctx context.Context, e *domain.BranchEvent) {
			m.Branches.WithLabelValues(e.OptionID).Inc()
		},
		OnUndo: func(ctx context.Context, e *domain.StackEvent) {
			m.StackOps.WithLabelValues("undo", boolLabel(e.Applied)).Inc()
		},
		OnRedo: func(ctx context.Context, e *domain.StackEvent) {
			m.StackOps.WithLabelValues("redo", boolLabel(e.Applied)).Inc()
		},
		OnReset: func(ctx context.Context, e *domain.NodeEvent) {
			m.Resets.Inc()
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			m.Checkpoints.WithLabelValues(string(e.Trigger)).Inc()
		},
		OnConditionError: func(ctx context.Context, e *domain.ConditionErrorEvent) {
			m.ConditionErrors.WithLabelValues(e.Predicate).Inc()
		},
		OnSave: func(ctx context.Context, e *domain.SaveEvent) {
			m.PersistOps.WithLabelValues("save").Inc()
			m.PersistBytes.WithLabelValues("save").Observe(float64(e.Bytes))
		},
		OnLoad: func(ctx context.Context, e *domain.SaveEvent) {
			m.PersistOps.WithLabelValues("load").Inc()
			m.PersistBytes.WithLabelValues("load").Observe(float64(e.Bytes))
		},
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
