package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/pkg/domain"
)

// Evaluator decides whether requirement sets pass against a flag map.
// It is strictly deterministic: outcomes depend only on the requirements and
// the flags. Time enters through the clock flag and randomness must be
// rolled into flags by the host, so replaying the same inputs always yields
// the same availability.
type Evaluator struct {
	predicates   map[string]domain.Predicate
	inventoryKey string
	clockKey     string

	logger  *slog.Logger
	onError func(name string, err error)
}

// NewEvaluator builds an evaluator with the default flag keys and an empty
// predicate registry.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		predicates:   make(map[string]domain.Predicate),
		inventoryKey: domain.KeyInventory,
		clockKey:     domain.KeyClock,
		logger:       logging.NewNop(),
	}
}

// Register adds a named predicate for custom requirements. Registering the
// same name again replaces the previous predicate.
func (ev *Evaluator) Register(name string, p domain.Predicate) {
	ev.predicates[name] = p
}

// ChoiceAllowed reports whether every gate on the choice passes: the enabled
// toggle, the flag requirement map, the requirement list and the optional
// named condition. Gates AND together and short-circuit on the first
// failure.
func (ev *Evaluator) ChoiceAllowed(choice domain.Choice, state *domain.State) bool {
	if choice.Enabled != nil && !*choice.Enabled {
		return false
	}
	for key, want := range choice.FlagRequirements {
		if !looseEqual(state.Flags[key], want) {
			return false
		}
	}
	if !ev.AllPass(choice.Requirements, state.Flags) {
		return false
	}
	if choice.Condition != "" && !ev.callPredicate(choice.Condition, state.Flags) {
		return false
	}
	return true
}

// AllPass evaluates a requirement list with AND semantics, stopping at the
// first failure.
func (ev *Evaluator) AllPass(reqs []domain.Requirement, flags map[string]any) bool {
	for _, req := range reqs {
		if !ev.pass(req, flags) {
			return false
		}
	}
	return true
}

func (ev *Evaluator) pass(req domain.Requirement, flags map[string]any) bool {
	ok := ev.passKind(req, flags)
	if req.Negate {
		return !ok
	}
	return ok
}

func (ev *Evaluator) passKind(req domain.Requirement, flags map[string]any) bool {
	switch req.Kind {
	case domain.RequireFlagEquals:
		return looseEqual(flags[req.Flag], req.Value)
	case domain.RequireFlagNotEquals:
		return !looseEqual(flags[req.Flag], req.Value)
	case domain.RequireFlagGreater:
		a, okA := toFloat(flags[req.Flag])
		b, okB := toFloat(req.Value)
		return okA && okB && a > b
	case domain.RequireFlagLess:
		a, okA := toFloat(flags[req.Flag])
		b, okB := toFloat(req.Value)
		return okA && okB && a < b
	case domain.RequireFlagContains:
		return contains(flags[req.Flag], req.Value)
	case domain.RequireFlagExists:
		_, ok := flags[req.Flag]
		return ok
	case domain.RequireInventoryHas:
		return inventoryCount(flags[ev.inventoryKey], req.Item) > 0
	case domain.RequireInventoryCount:
		return within(inventoryCount(flags[ev.inventoryKey], req.Item), req.Min, req.Max)
	case domain.RequireTimeWindow:
		key := req.Flag
		if key == "" {
			key = ev.clockKey
		}
		v, ok := toFloat(flags[key])
		return ok && within(v, req.Min, req.Max)
	case domain.RequireCustom:
		return ev.callPredicate(req.Name, flags)
	default:
		// Unknown kinds fail closed rather than silently passing.
		ev.surface(string(req.Kind), fmt.Errorf("unknown requirement kind"))
		return false
	}
}

// callPredicate runs a registered predicate with panic containment: a
// predicate that errors, panics or is missing fails the condition, it never
// takes the engine down. The predicate receives a copy of the flags so it
// cannot mutate live state.
func (ev *Evaluator) callPredicate(name string, flags map[string]any) (passed bool) {
	p, ok := ev.predicates[name]
	if !ok {
		ev.surface(name, fmt.Errorf("predicate not registered"))
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			ev.surface(name, fmt.Errorf("predicate panicked: %v", r))
			passed = false
		}
	}()

	result, err := p(domain.CloneFlags(flags))
	if err != nil {
		ev.surface(name, err)
		return false
	}
	return result
}

func (ev *Evaluator) surface(name string, err error) {
	if ev.onError != nil {
		ev.onError(name, err)
		return
	}
	ev.logger.Warn("condition failed closed", "predicate", name, "err", err)
}

// toFloat normalizes the numeric shapes a flag can arrive as: native ints
// and floats from Go hosts, float64 from JSON decoding, json.Number from
// strict decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// looseEqual compares with numeric normalization so that 2 equals 2.0
// regardless of which decoder produced either side.
func looseEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// contains handles both container shapes a flag can take: substring match
// for strings, membership for slices.
func contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		s, ok := needle.(string)
		return ok && strings.Contains(h, s)
	case []any:
		for _, item := range h {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	case []string:
		s, ok := needle.(string)
		if !ok {
			return false
		}
		for _, item := range h {
			if item == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// inventoryCount supports both inventory shapes: a list of item names where
// the count is the number of occurrences, or a map of item name to count.
func inventoryCount(inventory any, item string) float64 {
	switch inv := inventory.(type) {
	case []any:
		var n float64
		for _, entry := range inv {
			if s, ok := entry.(string); ok && s == item {
				n++
			}
		}
		return n
	case []string:
		var n float64
		for _, entry := range inv {
			if entry == item {
				n++
			}
		}
		return n
	case map[string]any:
		f, _ := toFloat(inv[item])
		return f
	default:
		return 0
	}
}

// within checks inclusive bounds; a nil bound leaves that side open.
func within(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
