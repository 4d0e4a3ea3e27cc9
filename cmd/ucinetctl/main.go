package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd  *cobra.Command
	netePath string
)

// OutputFormatter renders command results in JSON or human-readable
// form, matched by the global --json flag.
type OutputFormatter struct {
	jsonMode bool
}

func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &OutputFormatter{jsonMode: jsonMode}
}

// Print outputs data in the appropriate format.
func (f *OutputFormatter) Print(data interface{}) error {
	if f.jsonMode {
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}
	if s, ok := data.(string); ok {
		fmt.Println(s)
		return nil
	}
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonBytes))
	return nil
}

// Error prints message/err in the appropriate format and returns a
// wrapped error for cobra to propagate.
func (f *OutputFormatter) Error(message string, err error) error {
	if f.jsonMode {
		output := map[string]interface{}{"success": false, "error": message}
		if err != nil {
			output["details"] = err.Error()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(os.Stderr, string(jsonBytes))
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
	} else {
		fmt.Fprintln(os.Stderr, message)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return fmt.Errorf("%s", message)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "ucinetctl",
		Short: "Drive a UCI chess engine exposed over a network endpoint",
		Long: `ucinetctl connects to a UCI engine advertised over the network —
directly on the LAN, through UPnP-mapped external access, or via a
relay rendezvous — authenticates and negotiates an engine if the host
requires it, and pumps UCI traffic to and from stdio.`,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&netePath, "nete", "", "Path to a .nete endpoint descriptor file")
}

func main() {
	connectCmd := &cobra.Command{
		Use:           "connect",
		Short:         "Connect to the configured endpoint and pump UCI over stdio",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConnect,
	}
	connectCmd.Flags().Int64("hash", 64, "Hash table size in MB reported to the engine")
	connectCmd.Flags().String("syzygy-path", "", "Syzygy tablebase path to configure")
	connectCmd.Flags().String("gaviota-path", "", "Gaviota tablebase path to configure")
	connectCmd.Flags().String("network-id", "", "Network identity used to detect endpoint drift across reconnects")
	connectCmd.Flags().String("diagnostics-addr", "", "If set, also serve a read-only diagnostics WebSocket feed on this address")

	testCmd := &cobra.Command{
		Use:           "test",
		Short:         "Dial and handshake with the configured endpoint, then disconnect",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTest,
	}

	optionsCmd := &cobra.Command{
		Use:           "options",
		Short:         "Connect briefly and print the engine's declared UCI options",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOptions,
	}

	rootCmd.AddCommand(connectCmd, testCmd, optionsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCLILogger(jsonMode bool) *log.Logger {
	if jsonMode {
		return log.New(os.Stderr, "", 0)
	}
	return log.New(os.Stderr, "ucinetctl: ", log.LstdFlags)
}
