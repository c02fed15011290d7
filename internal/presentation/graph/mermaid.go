package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
)

// Overlay marks functions on the chart, typically from recent traces.
type Overlay struct {
	Called []string // function names that ran successfully
	Failed []string // function names whose last call failed
}

// GenerateMermaid produces a Mermaid flowchart of the registered units.
// Containers become subgraphs. Operation shapes follow their container:
//   - Tool container: [[Subroutine]]
//   - App container: [Rectangle]
//   - Standalone operation: ((Circle))
//
// Operations guarded by middleware carry the chain length in their label.
func GenerateMermaid(units []registry.Unit, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, u := range units {
		switch u.Kind {
		case registry.KindContainer:
			c := u.Container
			fmt.Fprintf(&sb, "    subgraph %s[\"%s (%s)\"]\n", sanitizeMermaidID(c.Slug()), escape(c.Name()), c.Kind())
			opener, closer := "[", "]"
			if c.Kind() == dsl.KindTool {
				opener, closer = "[[", "]]"
			}
			for _, op := range c.Operations() {
				fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", sanitizeMermaidID(c.FunctionName(op)), opener, label(op), closer)
			}
			sb.WriteString("    end\n")
		case registry.KindOperation:
			op := u.Operation
			fmt.Fprintf(&sb, "    %s((\"%s\"))\n", sanitizeMermaidID(op.Slug()), label(op))
		}
	}

	if overlay != nil && (len(overlay.Called) > 0 || len(overlay.Failed) > 0) {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on any theme.
		sb.WriteString("    classDef called fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:3px,color:#000;\n")
		writeClass(&sb, overlay.Called, "called")
		writeClass(&sb, overlay.Failed, "failed")
	}

	return sb.String()
}

func label(op *dsl.Operation) string {
	name := escape(op.Name())
	if n := op.MiddlewareCount(); n > 0 {
		return fmt.Sprintf("%s <br/> %d middleware", name, n)
	}
	return name
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		id := sanitizeMermaidID(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		fmt.Fprintf(sb, "    class %s %s;\n", id, class)
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
