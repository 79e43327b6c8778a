package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tmarche/fabula/pkg/domain"
)

// newTestMetrics uses an isolated registry so tests can run in parallel
// without clashing over the global one.
func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

func TestMetricsHooksRecordEvents(t *testing.T) {
	m := newTestMetrics(t)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "start"})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "start"})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{NodeID: "left"})
	hooks.OnChoice(ctx, &domain.ChoiceEvent{NodeID: "start", Choice: "Go left"})
	hooks.OnBranch(ctx, &domain.BranchEvent{OptionID: "take-ford"})
	hooks.OnUndo(ctx, &domain.StackEvent{Applied: true})
	hooks.OnUndo(ctx, &domain.StackEvent{Applied: false})
	hooks.OnRedo(ctx, &domain.StackEvent{Applied: true})
	hooks.OnReset(ctx, &domain.NodeEvent{NodeID: "start"})
	hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{Trigger: domain.TriggerChoice})
	hooks.OnConditionError(ctx, &domain.ConditionErrorEvent{Predicate: "cursed"})
	hooks.OnSave(ctx, &domain.SaveEvent{Key: "slot-1", Bytes: 512})
	hooks.OnLoad(ctx, &domain.SaveEvent{Key: "slot-1", Bytes: 512})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("left")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Choices.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Branches.WithLabelValues("take-ford")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StackOps.WithLabelValues("undo", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StackOps.WithLabelValues("undo", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StackOps.WithLabelValues("redo", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkpoints.WithLabelValues("choice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConditionErrors.WithLabelValues("cursed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistOps.WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistOps.WithLabelValues("load")))
}

func TestNewMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.NodeVisits.WithLabelValues("start").Inc()

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)

	var found bool
	for _, f := range families {
		if f.GetName() == "fabula_node_visits_total" {
			found = true
		}
	}
	assert.True(t, found, "node visit counter should be registered under the fabula namespace")
}
