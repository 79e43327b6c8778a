package domain

import "time"

// Chapter groups narrative flows and the branch points that route between them.
type Chapter struct {
	ID           string        `json:"id" yaml:"id" mapstructure:"id"`
	Title        string        `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Flows        []Flow        `json:"flows" yaml:"flows" mapstructure:"flows"`
	BranchPoints []BranchPoint `json:"branchPoints,omitempty" yaml:"branchPoints,omitempty" mapstructure:"branchPoints"`
}

// Flow returns the flow with the given ID, or nil if absent.
func (c *Chapter) Flow(id string) *Flow {
	for i := range c.Flows {
		if c.Flows[i].ID == id {
			return &c.Flows[i]
		}
	}
	return nil
}

// Flow is an ordered lane of nodes within a chapter.
type Flow struct {
	ID          string       `json:"id" yaml:"id" mapstructure:"id"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	NodeIDs     []string     `json:"nodeIds" yaml:"nodeIds" mapstructure:"nodeIds"`
	EntryPoints []EntryPoint `json:"entryPoints,omitempty" yaml:"entryPoints,omitempty" mapstructure:"entryPoints"`
}

// EntryNode picks where the flow begins when entered via a branch: the
// highest-priority declared entry point, falling back to the flow's first
// node. Declaration order breaks priority ties. Empty for an empty flow.
func (f *Flow) EntryNode() string {
	if len(f.EntryPoints) > 0 {
		best := f.EntryPoints[0]
		for _, ep := range f.EntryPoints[1:] {
			if ep.Priority > best.Priority {
				best = ep
			}
		}
		return best.NodeID
	}
	if len(f.NodeIDs) > 0 {
		return f.NodeIDs[0]
	}
	return ""
}

// EntryPoint declares where a flow begins when entered via a branch.
// The highest priority wins; a flow without entry points starts at its
// first node.
type EntryPoint struct {
	NodeID   string `json:"nodeId" yaml:"nodeId" mapstructure:"nodeId"`
	Priority int    `json:"priority" yaml:"priority" mapstructure:"priority"`
}

// BranchPoint attaches decision options to a specific (flow, node) pair.
// Its Requirements gate the whole point; each option carries its own gates
// on top of that.
type BranchPoint struct {
	ID           string         `json:"id" yaml:"id" mapstructure:"id"`
	FlowID       string         `json:"flowId" yaml:"flowId" mapstructure:"flowId"`
	NodeID       string         `json:"nodeId" yaml:"nodeId" mapstructure:"nodeId"`
	Requirements []Requirement  `json:"requirements,omitempty" yaml:"requirements,omitempty" mapstructure:"requirements"`
	Options      []BranchOption `json:"options" yaml:"options" mapstructure:"options"`
}

// BranchOption is a single route out of a BranchPoint. Options keep their
// authored order everywhere they are listed; Weight only biases the
// suggestion helper, it never filters availability.
type BranchOption struct {
	ID           string         `json:"id" yaml:"id" mapstructure:"id"`
	Label        string         `json:"label" yaml:"label" mapstructure:"label"`
	TargetFlowID string         `json:"targetFlowId" yaml:"targetFlowId" mapstructure:"targetFlowId"`
	FlagEffects  map[string]any `json:"flagEffects,omitempty" yaml:"flagEffects,omitempty" mapstructure:"flagEffects"`
	Requirements []Requirement  `json:"requirements,omitempty" yaml:"requirements,omitempty" mapstructure:"requirements"`
	Weight       float64        `json:"weight,omitempty" yaml:"weight,omitempty" mapstructure:"weight"`
}

// BranchRecord is one committed branch transition.
type BranchRecord struct {
	OptionID   string    `json:"optionId"`
	FromFlowID string    `json:"fromFlowId,omitempty"`
	ToFlowID   string    `json:"toFlowId"`
	NodeID     string    `json:"nodeId"`
	TakenAt    time.Time `json:"takenAt"`
}

// BranchingState is the mutable half of the branching engine: where the
// playthrough currently sits, which branches were taken, and the usage
// analytics. It serializes alongside State in the save envelope.
type BranchingState struct {
	ChapterID string         `json:"chapterId,omitempty"`
	FlowID    string         `json:"flowId,omitempty"`
	History   []BranchRecord `json:"history,omitempty"`

	// Usage counts executions per option ID.
	Usage map[string]int `json:"usage,omitempty"`

	// Popular lists option IDs most-recently-executed first, capped at
	// PopularLimit entries.
	Popular []string `json:"popular,omitempty"`

	// Dynamic holds branch points inserted at runtime. They participate in
	// routing exactly like authored points and persist with the save.
	Dynamic []BranchPoint `json:"dynamic,omitempty"`
}

// PopularLimit caps the most-popular option list.
const PopularLimit = 10

// NewBranchingState creates an empty branching state.
func NewBranchingState() *BranchingState {
	return &BranchingState{Usage: make(map[string]int)}
}

// Clone returns a deep copy of the branching state.
func (b *BranchingState) Clone() *BranchingState {
	if b == nil {
		return nil
	}
	next := &BranchingState{
		ChapterID: b.ChapterID,
		FlowID:    b.FlowID,
		History:   append([]BranchRecord(nil), b.History...),
		Popular:   append([]string(nil), b.Popular...),
	}
	next.Usage = make(map[string]int, len(b.Usage))
	for k, v := range b.Usage {
		next.Usage[k] = v
	}
	if b.Dynamic != nil {
		next.Dynamic = make([]BranchPoint, len(b.Dynamic))
		for i, bp := range b.Dynamic {
			next.Dynamic[i] = bp.Clone()
		}
	}
	return next
}

// Clone returns a deep copy of the branch point.
func (bp BranchPoint) Clone() BranchPoint {
	out := bp
	out.Requirements = append([]Requirement(nil), bp.Requirements...)
	out.Options = make([]BranchOption, len(bp.Options))
	for i, opt := range bp.Options {
		o := opt
		o.Requirements = append([]Requirement(nil), opt.Requirements...)
		o.FlagEffects = CloneFlags(opt.FlagEffects)
		out.Options[i] = o
	}
	return out
}
