package domain

// RequirementKind identifies one of the closed set of condition forms the
// evaluator understands. New kinds are added to this enumeration, never via
// subtyping; an unknown kind evaluates to false.
type RequirementKind string

const (
	RequireFlagEquals     RequirementKind = "flag_equals"
	RequireFlagNotEquals  RequirementKind = "flag_not_equals"
	RequireFlagGreater    RequirementKind = "flag_greater"
	RequireFlagLess       RequirementKind = "flag_less"
	RequireFlagContains   RequirementKind = "flag_contains"
	RequireFlagExists     RequirementKind = "flag_exists"
	RequireInventoryHas   RequirementKind = "inventory_has"
	RequireInventoryCount RequirementKind = "inventory_count"
	RequireTimeWindow     RequirementKind = "time_window"
	RequireCustom         RequirementKind = "custom"
)

// Requirement is a single declarative condition. Which fields are meaningful
// depends on Kind; unused fields are ignored by the evaluator.
type Requirement struct {
	Kind RequirementKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Flag is the target flag for the flag_* kinds and the clock flag for
	// time_window (default: KeyClock). The engine never reads the wall clock;
	// hosts advance the clock flag explicitly.
	Flag string `json:"flag,omitempty" yaml:"flag,omitempty" mapstructure:"flag"`

	// Value is the comparison operand for equals/not_equals/greater/less/contains.
	Value any `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`

	// Item is the inventory entry for the inventory_* kinds.
	Item string `json:"item,omitempty" yaml:"item,omitempty" mapstructure:"item"`

	// Min and Max bound time_window and inventory_count. Both are inclusive;
	// nil leaves that side open.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`

	// Name selects the registered predicate for the custom kind.
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	// Negate inverts the result of this requirement.
	Negate bool `json:"negate,omitempty" yaml:"negate,omitempty" mapstructure:"negate"`
}

// Predicate is a host-injected condition, registered by name and referenced
// from Requirement.Name or Choice.Condition. It receives a read-only copy of
// the flags and must be pure: no I/O, no wall clock, no randomness.
// A panicking or erroring predicate is treated as "condition failed".
type Predicate func(flags map[string]any) (bool, error)
