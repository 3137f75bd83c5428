package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teamsync-backend/internal/llm/provider"
	"teamsync-backend/internal/shared/telemetry"
)

var version = "dev"

var newLLM = provider.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer telemetry.Sync()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "teamsyncctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teamsyncctl",
		Short: "TeamSync operator CLI",
		Long: `teamsyncctl runs TeamSync operations outside the API: parsing and extracting
local chat exports, running the retention sweep and applying migrations.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newParseCmd(),
		newExtractCmd(),
		newCleanupCmd(),
		newMigrateCmd(),
	)
	return cmd
}
