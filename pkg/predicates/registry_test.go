package predicates

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EvaluateRegistered(t *testing.T) {
	reg := NewRegistry()
	reg.Register("has_badge", func(flags map[string]any) (bool, error) {
		return flags["badge"] == true, nil
	})

	ok, err := reg.Evaluate("has_badge", map[string]any{"badge": true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reg.Evaluate("has_badge", map[string]any{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_EvaluateMissing(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Evaluate("ghost", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	reg := NewRegistry()
	reg.Register("flip", func(map[string]any) (bool, error) { return false, nil })
	reg.Register("flip", func(map[string]any) (bool, error) { return true, nil })

	ok, err := reg.Evaluate("flip", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		reg.Register(name, func(map[string]any) (bool, error) { return true, nil })
	}

	assert.Equal(t, []string{"alpha", "mike", "zulu"}, reg.Names())
}

func TestRegistry_SnapshotIsIsolated(t *testing.T) {
	reg := NewRegistry()
	reg.Register("early", func(map[string]any) (bool, error) { return true, nil })

	snap := reg.Snapshot()
	reg.Register("late", func(map[string]any) (bool, error) { return true, nil })

	assert.Len(t, snap, 1)
	assert.Contains(t, snap, "early")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("p%d", n)
			reg.Register(name, func(map[string]any) (bool, error) { return true, nil })
			_, _ = reg.Evaluate(name, nil)
			_ = reg.Names()
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.Names(), 16)
}
