package main

import (
	"os/signal"
	"syscall"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/adapters/stdio"
	"github.com/spf13/cobra"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Dispatch tool calls read as JSON Lines from stdin",
	Long: `Reads one assistant message or chat completion per line from stdin and writes
the tool responses for it as one JSON array per line to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h := stdio.NewHandler(cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
		return h.Serve(ctx, a.relay.Adapter(openai.WithInvoker(a.registry.Invoke)))
	},
}

func init() {
	rootCmd.AddCommand(pipeCmd)
}
