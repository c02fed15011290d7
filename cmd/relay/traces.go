package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var tracesCmd = &cobra.Command{
	Use:   "traces <container>",
	Short: "Show recent trace events stored in Redis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		n, _ := cmd.Flags().GetInt("limit")
		records, err := a.recent(cmd.Context(), args[0], n)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	rootCmd.AddCommand(tracesCmd)
	tracesCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}
