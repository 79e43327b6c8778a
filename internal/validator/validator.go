// Package validator checks story graphs for structural defects before the
// engine accepts them.
package validator

import (
	"fmt"

	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/schema"
)

// Result carries the advisory findings of a validation pass.
type Result struct {
	// Unreachable lists nodes that no choice path from the initial node can
	// reach. Unreachable nodes are legal (stories ship with drafts) but
	// worth surfacing to authors.
	Unreachable []string
}

// ValidateStory checks a story for structural defects: duplicate node IDs,
// a missing initial node, dangling choice targets, and broken chapter/flow
// wiring. Defects are fatal; every one found is collected into a single
// schema.AggregateError instead of stopping at the first.
func ValidateStory(story *domain.Story) (*Result, error) {
	if story == nil {
		return nil, &schema.AggregateError{Errors: []error{
			&schema.ValidationError{Field: "story", Reason: "story is nil"},
		}}
	}

	var errs []error

	// Node IDs must be unique. Build the lookup while checking.
	index := make(map[string]bool, len(story.Nodes))
	for i := range story.Nodes {
		node := &story.Nodes[i]
		if node.ID == "" {
			errs = append(errs, &schema.ValidationError{
				Field: "id", Reason: fmt.Sprintf("node %d has an empty id", i),
			})
			continue
		}
		if index[node.ID] {
			errs = append(errs, &schema.ValidationError{
				NodeID: node.ID, Field: "id", Reason: "duplicate node id",
			})
			continue
		}
		index[node.ID] = true
	}

	// The initial node must exist.
	switch {
	case story.InitialNodeID == "":
		errs = append(errs, &schema.ValidationError{
			Field: "initialNodeId", Reason: "missing initial node id",
		})
	case !index[story.InitialNodeID]:
		errs = append(errs, &schema.ValidationError{
			NodeID: story.InitialNodeID, Field: "initialNodeId", Reason: "initial node does not exist",
		})
	}

	// Every choice target must resolve.
	for i := range story.Nodes {
		node := &story.Nodes[i]
		for _, choice := range node.Choices {
			if choice.NextNodeID == "" {
				errs = append(errs, &schema.ValidationError{
					NodeID: node.ID, Field: "nextNodeId",
					Reason: fmt.Sprintf("choice %q has no target", choice.Text),
				})
				continue
			}
			if !index[choice.NextNodeID] {
				errs = append(errs, &schema.ValidationError{
					NodeID: node.ID, Field: "nextNodeId",
					Reason: fmt.Sprintf("choice %q targets missing node %q", choice.Text, choice.NextNodeID),
				})
			}
		}
	}

	errs = append(errs, validateChapters(story, index)...)

	if len(errs) > 0 {
		return nil, &schema.AggregateError{Errors: errs}
	}

	return &Result{Unreachable: unreachable(story)}, nil
}

func validateChapters(story *domain.Story, index map[string]bool) []error {
	var errs []error

	for ci := range story.Chapters {
		chapter := &story.Chapters[ci]
		if chapter.ID == "" {
			errs = append(errs, &schema.ValidationError{
				Field: "chapters", Reason: fmt.Sprintf("chapter %d has an empty id", ci),
			})
			continue
		}

		flows := make(map[string]*domain.Flow, len(chapter.Flows))
		for fi := range chapter.Flows {
			flow := &chapter.Flows[fi]
			if flow.ID == "" {
				errs = append(errs, &schema.ValidationError{
					NodeID: chapter.ID, Field: "flows",
					Reason: fmt.Sprintf("flow %d has an empty id", fi),
				})
				continue
			}
			flows[flow.ID] = flow

			members := make(map[string]bool, len(flow.NodeIDs))
			for _, nodeID := range flow.NodeIDs {
				members[nodeID] = true
				if !index[nodeID] {
					errs = append(errs, &schema.ValidationError{
						NodeID: chapter.ID, Field: "flows",
						Reason: fmt.Sprintf("flow %q lists missing node %q", flow.ID, nodeID),
					})
				}
			}
			for _, entry := range flow.EntryPoints {
				if !members[entry.NodeID] {
					errs = append(errs, &schema.ValidationError{
						NodeID: chapter.ID, Field: "entryPoints",
						Reason: fmt.Sprintf("flow %q entry point %q is not a member of the flow", flow.ID, entry.NodeID),
					})
				}
			}
		}

		for _, bp := range chapter.BranchPoints {
			if _, ok := flows[bp.FlowID]; !ok {
				errs = append(errs, &schema.ValidationError{
					NodeID: chapter.ID, Field: "branchPoints",
					Reason: fmt.Sprintf("branch point %q is bound to unknown flow %q", bp.ID, bp.FlowID),
				})
			}
			if !index[bp.NodeID] {
				errs = append(errs, &schema.ValidationError{
					NodeID: chapter.ID, Field: "branchPoints",
					Reason: fmt.Sprintf("branch point %q is bound to missing node %q", bp.ID, bp.NodeID),
				})
			}
			for _, opt := range bp.Options {
				if _, ok := flows[opt.TargetFlowID]; ok {
					continue
				}
				if _, f := story.FlowByID(opt.TargetFlowID); f == nil {
					errs = append(errs, &schema.ValidationError{
						NodeID: chapter.ID, Field: "branchPoints",
						Reason: fmt.Sprintf("option %q targets unknown flow %q", opt.ID, opt.TargetFlowID),
					})
				}
			}
		}
	}

	return errs
}

// unreachable walks the choice graph iteratively from the initial node.
// Cyclic stories are expected; the visited set terminates the walk.
func unreachable(story *domain.Story) []string {
	visited := make(map[string]bool, len(story.Nodes))
	queue := []string{story.InitialNodeID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node := story.Node(currentID)
		if node == nil {
			continue
		}
		for _, choice := range node.Choices {
			if !visited[choice.NextNodeID] {
				queue = append(queue, choice.NextNodeID)
			}
		}
	}

	var missing []string
	for i := range story.Nodes {
		if !visited[story.Nodes[i].ID] {
			missing = append(missing, story.Nodes[i].ID)
		}
	}
	return missing
}
