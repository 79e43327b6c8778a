package runtime

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/tmarche/fabula/pkg/domain"
)

// Branch history bounds: the record list is hard-capped and on overflow the
// oldest batch is pruned in one step so pruning cost amortizes.
const (
	BranchHistoryLimit = 1000
	branchHistoryPrune = 100
)

// CurrentFlow returns the active chapter and flow. Both are nil for stories
// without chapters.
func (e *Engine) CurrentFlow() (*domain.Chapter, *domain.Flow) {
	chapter := e.story.Chapter(e.branching.ChapterID)
	if chapter == nil {
		return nil, nil
	}
	return chapter, chapter.Flow(e.branching.FlowID)
}

// AvailableBranches returns every option whose branch point is bound to the
// current flow and node and whose gates pass. Options keep declaration
// order, with authored branch points ahead of dynamically inserted ones.
func (e *Engine) AvailableBranches() []domain.BranchOption {
	var out []domain.BranchOption
	for _, bp := range e.branchPointsHere() {
		if !e.evaluator.AllPass(bp.Requirements, e.state.Flags) {
			continue
		}
		for _, opt := range bp.Options {
			if e.evaluator.AllPass(opt.Requirements, e.state.Flags) {
				out = append(out, opt)
			}
		}
	}
	return out
}

func (e *Engine) branchPointsHere() []domain.BranchPoint {
	var points []domain.BranchPoint
	if chapter := e.story.Chapter(e.branching.ChapterID); chapter != nil {
		for _, bp := range chapter.BranchPoints {
			if bp.FlowID == e.branching.FlowID && bp.NodeID == e.state.CurrentNodeID {
				points = append(points, bp)
			}
		}
	}
	for _, bp := range e.branching.Dynamic {
		if bp.FlowID == e.branching.FlowID && bp.NodeID == e.state.CurrentNodeID {
			points = append(points, bp)
		}
	}
	return points
}

// ExecuteBranch routes the playthrough to the option's target flow, entering
// at its highest-priority entry point or first node. Resolution happens
// entirely before mutation: a failure at any step leaves state, history and
// analytics exactly as they were.
func (e *Engine) ExecuteBranch(optionID string) error {
	if e.branchInFlight {
		return domain.ErrBranchInFlight
	}
	e.branchInFlight = true
	defer func() { e.branchInFlight = false }()

	var selected *domain.BranchOption
	for _, opt := range e.AvailableBranches() {
		if opt.ID == optionID {
			o := opt
			selected = &o
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("branch option %q: %w", optionID, domain.ErrOptionNotAvailable)
	}

	chapter, flow := e.resolveFlow(selected.TargetFlowID)
	if flow == nil {
		return &domain.UnresolvedFlowError{OptionID: selected.ID, FlowID: selected.TargetFlowID}
	}

	entryID := flow.EntryNode()
	if entryID == "" {
		return &domain.UnresolvedNodeError{FlowID: flow.ID}
	}
	if _, ok := e.index[entryID]; !ok {
		return &domain.UnresolvedNodeError{FlowID: flow.ID, NodeID: entryID}
	}

	// Everything resolved; commit.
	before := e.snapshotNow()
	prevNodeID := e.state.CurrentNodeID
	prevFlowID := e.branching.FlowID

	for k, v := range selected.FlagEffects {
		e.state.Flags[k] = domain.CloneValue(v)
	}
	e.state.History = append(e.state.History, entryID)
	e.state.CurrentNodeID = entryID
	e.branching.ChapterID = chapter.ID
	e.branching.FlowID = flow.ID

	e.recordBranch(selected.ID, prevFlowID, flow.ID, entryID)
	e.history.Record(entry{Kind: entryBranch, Before: before, After: e.snapshotNow(), At: time.Now()})

	e.logger.Debug("branch committed",
		"option", selected.ID,
		"from_flow", prevFlowID,
		"to_flow", flow.ID,
		"node", entryID)

	e.emitNodeLeave(prevNodeID)
	e.emitBranch(selected.ID, prevFlowID, flow.ID)
	e.emitNodeEnter(entryID)
	return nil
}

// resolveFlow prefers the active chapter, then searches the whole story so
// options may route across chapter boundaries.
func (e *Engine) resolveFlow(flowID string) (*domain.Chapter, *domain.Flow) {
	if chapter := e.story.Chapter(e.branching.ChapterID); chapter != nil {
		if flow := chapter.Flow(flowID); flow != nil {
			return chapter, flow
		}
	}
	return e.story.FlowByID(flowID)
}

// recordBranch appends the analytics trail: bounded history, usage counter
// and the move-to-front popular list.
func (e *Engine) recordBranch(optionID, fromFlowID, toFlowID, nodeID string) {
	e.branching.History = append(e.branching.History, domain.BranchRecord{
		OptionID:   optionID,
		FromFlowID: fromFlowID,
		ToFlowID:   toFlowID,
		NodeID:     nodeID,
		TakenAt:    time.Now().UTC(),
	})
	if len(e.branching.History) > BranchHistoryLimit {
		e.branching.History = append([]domain.BranchRecord(nil), e.branching.History[branchHistoryPrune:]...)
	}

	e.branching.Usage[optionID]++
	e.branching.Popular = moveToFront(e.branching.Popular, optionID, domain.PopularLimit)
}

// moveToFront promotes id to the head of list, keeping at most limit
// entries.
func moveToFront(list []string, id string, limit int) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, id)
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// InsertDynamicBranch adds a branch point at runtime. The point's own
// requirements gate the insertion: when they fail against the current flags
// nothing is inserted and false is returned without error.
func (e *Engine) InsertDynamicBranch(bp domain.BranchPoint) (bool, error) {
	if bp.ID == "" {
		return false, fmt.Errorf("branch point id is required")
	}
	for _, existing := range e.branching.Dynamic {
		if existing.ID == bp.ID {
			return false, fmt.Errorf("branch point %q already inserted", bp.ID)
		}
	}
	if !e.evaluator.AllPass(bp.Requirements, e.state.Flags) {
		return false, nil
	}

	e.branching.Dynamic = append(e.branching.Dynamic, bp.Clone())
	return true, nil
}

// RemoveDynamicBranch removes a runtime-inserted branch point by id.
// Authored branch points cannot be removed.
func (e *Engine) RemoveDynamicBranch(id string) bool {
	for i := range e.branching.Dynamic {
		if e.branching.Dynamic[i].ID == id {
			e.branching.Dynamic = append(e.branching.Dynamic[:i], e.branching.Dynamic[i+1:]...)
			return true
		}
	}
	return false
}

// SuggestedBranch picks a weighted suggestion among the available options.
// The seed comes from the seed flag so suggestions replay deterministically;
// without it the first option is suggested.
func (e *Engine) SuggestedBranch() *domain.BranchOption {
	options := e.AvailableBranches()
	if len(options) == 0 {
		return nil
	}
	seed, ok := toFloat(e.state.Flags[domain.KeySeed])
	if !ok {
		o := options[0]
		return &o
	}
	return WeightedPick(options, int64(seed))
}

// WeightedPick selects one option with probability proportional to its
// weight, derived purely from the seed. Non-positive weights count as 1 so
// unweighted options stay selectable. Same options and seed, same result.
func WeightedPick(options []domain.BranchOption, seed int64) *domain.BranchOption {
	if len(options) == 0 {
		return nil
	}

	var total float64
	weights := make([]float64, len(options))
	for i, opt := range options {
		w := opt.Weight
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	r := rand.New(rand.NewSource(seed)).Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			o := options[i]
			return &o
		}
	}
	o := options[len(options)-1]
	return &o
}
