// Package cli wires the copilot's commands: building the knowledge
// corpus, asking one-shot questions, and an interactive chat.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preston-fay/televantage-copilot/config"
	"github.com/preston-fay/televantage-copilot/pkg/logging"
	"github.com/preston-fay/televantage-copilot/pkg/telemetry"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "Strategy Copilot - churn analytics question answering",
	Long: `The Strategy Copilot answers natural-language questions about customer
churn using retrieval over a strategy knowledge base and deterministic
data tools over the churn dataset.

Example usage:
  copilot index                          # Build the knowledge corpus
  copilot ask "What is ARPU?"            # Answer one question
  copilot chat                           # Interactive session`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.FromEnv()
		if cfgFile != "" {
			if err := cfg.LoadFile(cfgFile); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() {
	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "televantage-copilot",
		Disable:     os.Getenv("COPILOT_TRACING") == "",
	})
	if err != nil {
		logging.Logger().Warn("telemetry disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdown(ctx) }()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, overlays environment settings)")
}
