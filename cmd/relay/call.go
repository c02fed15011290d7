package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/spf13/cobra"
)

// callCmd represents the call command
var callCmd = &cobra.Command{
	Use:   "call <function> [json-arguments]",
	Short: "Invoke a function locally",
	Long: `Invokes one function by its protocol name, or with --message dispatches every
tool call of an assistant message (file path or "-" for stdin) and prints the
tool responses as JSON.`,
	Example: `  relay call echo-message '{"message":"hi"}'
  relay call --message reply.json`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		if message == "" && len(args) == 0 {
			return fmt.Errorf("a function name or --message is required")
		}

		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if message != "" {
			msg, err := readMessage(cmd.InOrStdin(), message)
			if err != nil {
				return err
			}
			responses := a.relay.Handle(ctx, msg)
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(responses)
		}

		var input any
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
				return fmt.Errorf("invalid arguments: %w", err)
			}
		}
		result, err := a.registry.Invoke(ctx, args[0], input)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, openai.Content(result))
		return nil
	},
}

func readMessage(stdin io.Reader, source string) (domain.Message, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to read message: %w", err)
	}
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringP("message", "m", "", `Assistant message JSON to dispatch (path or "-")`)
}
