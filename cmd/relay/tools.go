package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// toolsCmd represents the tools command
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the function definitions exposed to agents",
	Long: `Prints every operation as a function definition.

Formats:
- markdown (default): parameter tables, styled when stdout is a terminal.
- json: the definitions exactly as sent to a function-calling model.
- mermaid: a graph of containers and their operations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()
		defs := a.registry.Functions()

		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(a.registry.Units(), nil))
			return nil
		case "markdown", "md":
			styled := out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
			rendered, err := tui.NewRenderer(styled)(tui.ToolsMarkdown(defs))
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		default:
			return fmt.Errorf("unknown format %q (markdown, json, mermaid)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or mermaid")
}
