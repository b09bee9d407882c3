package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kjannette/maichez-backend/internal/config"
	"github.com/kjannette/maichez-backend/internal/logger"
)

const version = "0.3.0"

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "maichez",
		Short: "Maichez - trade review assistant for students",
		Long: `Maichez walks you through a trade idea (direction, pair, setup),
checks it against your trading rules and reports a verdict.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			level := "warn"
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = "debug"
			}
			return logger.Init(logger.LogConfig{Level: level, Format: "text", ServiceVersion: version})
		},
	}

	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(newChatCmd(func() *config.Config { return cfg }))
	root.AddCommand(newRulesCmd(func() *config.Config { return cfg }))
	root.AddCommand(newHistoryCmd(func() *config.Config { return cfg }))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "maichez v%s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
