package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/foundry/pkg/domain"
)

const (
	ingressID = "ingress"
	egressID  = "egress"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	// Visited lists the opcodes executed by a run.
	Visited []string
	// Failed is the opcode a run stopped at, if any.
	Failed string
}

// GenerateMermaid produces a Mermaid flowchart for an alignment.
// It applies semantic styling:
// - Ingress: ((Circle))
// - Process: [Rectangle] labelled with its load and save registers
// - Switch: {Rhombus} with true/false labelled edges
// - Egress: ([Stadium]) labelled with its output keys
// Exit edges are dotted.
func GenerateMermaid(a *domain.Alignment, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, op := range a.Operations {
		switch o := op.(type) {
		case *domain.Ingress:
			fmt.Fprintf(&sb, "    %s((\"ingress <br/> %s\"))\n", ingressID, o.Prompt)
			if o.Next != "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", ingressID, nodeID(o.Next))
			}
		case *domain.Process:
			id := nodeID(o.Opcode)
			fmt.Fprintf(&sb, "    %s[\"%s <br/> %s → %s\"]\n", id, escape(o.Opcode), o.Load, o.Save)
			switch {
			case o.Exit:
				fmt.Fprintf(&sb, "    %s -. exit .-> %s\n", id, egressID)
			case o.Next != "":
				fmt.Fprintf(&sb, "    %s --> %s\n", id, nodeID(o.Next))
			}
		case *domain.Switch:
			id := nodeID(o.Opcode)
			fmt.Fprintf(&sb, "    %s{\"%s <br/> %s\"}\n", id, escape(o.Opcode), o.Load)
			if o.NextWhenTrue != "" {
				fmt.Fprintf(&sb, "    %s -- \"true → %s\" --> %s\n", id, o.SaveTrue, nodeID(o.NextWhenTrue))
			}
			if o.NextWhenFalse != "" {
				fmt.Fprintf(&sb, "    %s -- \"false → %s\" --> %s\n", id, o.SaveFalse, nodeID(o.NextWhenFalse))
			}
		case *domain.Egress:
			keys := make([]string, 0, len(o.Result))
			for k := range o.Result {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(&sb, "    %s([\"egress <br/> %s\"])\n", egressID, escape(strings.Join(keys, ", ")))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, opcode := range overlay.Visited {
			id := nodeID(opcode)
			if !seen[id] && opcode != "" {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.Failed != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", nodeID(overlay.Failed))
		}
	}

	return sb.String()
}

// nodeID prefixes opcodes so they never clash with the ingress/egress nodes.
func nodeID(opcode string) string {
	return "op_" + sanitizeMermaidID(opcode)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
