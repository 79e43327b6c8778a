package graph

import (
	"fmt"
	"strings"

	"github.com/tmarche/fabula/pkg/domain"
)

// Overlay marks playthrough state on a rendered graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid renders the story as a Mermaid flowchart. Shapes carry
// meaning: the initial node is a circle, endings are stadiums, everything
// else a rectangle. Choice edges wear their text as the label; gated
// choices and branch-point routes are dotted. Flows group their nodes
// into subgraphs, and an overlay highlights visited and current nodes.
//
// The generator tolerates broken stories (dangling targets, unknown flow
// members) so it stays usable while debugging them.
func GenerateMermaid(story *domain.Story, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool)
	writeNode := func(indent string, node *domain.Node) {
		if node == nil || declared[node.ID] {
			return
		}
		declared[node.ID] = true
		opener, closer := "[", "]"
		switch {
		case node.ID == story.InitialNodeID:
			opener, closer = "((", "))"
		case node.IsEnding():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "%s%s%s\"%s\"%s\n", indent, sanitizeMermaidID(node.ID), opener, escapeLabel(node.ID), closer)
	}

	// Flow members render inside their flow's subgraph; a node claimed by
	// two flows stays with the first.
	for _, ch := range story.Chapters {
		for _, flow := range ch.Flows {
			title := flow.Title
			if title == "" {
				title = flow.ID
			}
			fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("flow_"+flow.ID), escapeLabel(title))
			for _, id := range flow.NodeIDs {
				writeNode("        ", story.Node(id))
			}
			sb.WriteString("    end\n")
		}
	}
	for i := range story.Nodes {
		writeNode("    ", &story.Nodes[i])
	}

	for _, node := range story.Nodes {
		from := sanitizeMermaidID(node.ID)
		for _, c := range node.Choices {
			to := sanitizeMermaidID(c.NextNodeID)
			label := escapeLabel(c.Text)
			switch {
			case gated(c):
				fmt.Fprintf(&sb, "    %s -. \"🔒 %s\" .-> %s\n", from, label, to)
			case label != "":
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, label, to)
			default:
				fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			}
		}
	}

	// Branch options route into their target flow's entry node.
	for _, ch := range story.Chapters {
		for _, bp := range ch.BranchPoints {
			from := sanitizeMermaidID(bp.NodeID)
			for _, opt := range bp.Options {
				_, flow := story.FlowByID(opt.TargetFlowID)
				if flow == nil {
					continue
				}
				entry := flow.EntryNode()
				if entry == "" {
					continue
				}
				label := opt.Label
				if label == "" {
					label = opt.ID
				}
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, escapeLabel(label), sanitizeMermaidID(entry))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Playthrough overlay\n")
		// color:#000 keeps labels readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#ede9fe,stroke:#6d28d9,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#fde68a,stroke:#d97706,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safe := sanitizeMermaidID(id)
			if safe == "" || seen[safe] {
				continue
			}
			seen[safe] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safe)
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// gated reports whether selecting the choice depends on state, which the
// graph draws as a dotted edge.
func gated(c domain.Choice) bool {
	if c.Enabled != nil && !*c.Enabled {
		return true
	}
	return c.Condition != "" || len(c.Requirements) > 0 || len(c.FlagRequirements) > 0
}

// escapeLabel makes arbitrary story text safe inside a Mermaid quoted
// label: double quotes become apostrophes and whitespace collapses.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeMermaidID(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', '/', '\\', ' ':
			return '_'
		}
		return r
	}, id)
}
