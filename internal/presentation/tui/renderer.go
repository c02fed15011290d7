package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Plain output is used when the terminal does not support styling.
func NewRenderer(styled bool) func(string) (string, error) {
	opt := glamour.WithStandardStyle("notty")
	if styled {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ToolsMarkdown documents function definitions as markdown, one section per
// function with its parameters in a table.
func ToolsMarkdown(defs []domain.FunctionDefinition) string {
	var sb strings.Builder
	sb.WriteString("# Tools\n\n")
	if len(defs) == 0 {
		sb.WriteString("_No operations registered._\n")
		return sb.String()
	}

	for _, def := range defs {
		fn := def.Function
		fmt.Fprintf(&sb, "## `%s`\n\n", fn.Name)
		if fn.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", fn.Description)
		}

		props, _ := fn.Parameters["properties"].(map[string]any)
		if len(props) == 0 {
			sb.WriteString("_No parameters._\n\n")
			continue
		}
		required := requiredSet(fn.Parameters["required"])

		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		sb.WriteString("| Parameter | Type | Required | Description |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, name := range names {
			prop, _ := props[name].(map[string]any)
			desc, _ := prop["description"].(string)
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", name, typeOf(prop), yesNo(required[name]), desc)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func requiredSet(v any) map[string]bool {
	out := map[string]bool{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			out[s] = true
		}
	case []any:
		for _, s := range list {
			if str, ok := s.(string); ok {
				out[str] = true
			}
		}
	}
	return out
}

func typeOf(prop map[string]any) string {
	t, _ := prop["type"].(string)
	if f, ok := prop["format"].(string); ok {
		return t + " (" + f + ")"
	}
	switch enum := prop["enum"].(type) {
	case []string:
		return "enum: " + strings.Join(enum, ", ")
	case []any:
		parts := make([]string, len(enum))
		for i, e := range enum {
			parts[i] = fmt.Sprint(e)
		}
		return "enum: " + strings.Join(parts, ", ")
	}
	if t == "" {
		return "any"
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
