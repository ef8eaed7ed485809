package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the catalogctl command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Operational tooling for the media catalog",
		Long: `catalogctl runs maintenance tasks against the media catalog using the same
environment configuration as the API server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(NewSweepCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewProbeCommand())

	return rootCmd
}

func cmdContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
