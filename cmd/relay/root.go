package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay dispatches declarative operations to function-calling agents",
	Long: `Relay exposes validated operations as tools for LLM function calling.
It lists the catalogue, invokes functions locally and serves them over HTTP or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./relay.yaml when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Trace every invocation")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("tools", "", "YAML or JSON file declaring process tools")
}
