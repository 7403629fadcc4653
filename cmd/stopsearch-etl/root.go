package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	bfdomain "stopsearch/internal/services/backfill/domain"
)

// newRootCommand builds the stopsearch-etl command tree
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stopsearch-etl",
		Short: "Load UK police stop and search records into a local store",
		Long: `stopsearch-etl pulls stop and search records from data.police.uk month by month,
normalizes them and stores them idempotently in SQLite or Postgres.

Configuration comes from the environment (STOPSEARCH_*, CORE_*, SERVICE_PGSQL_*, LOG_*);
flags override the matching variables for one invocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newBackfillCommand())
	cmd.AddCommand(newRunOnceCommand())
	cmd.AddCommand(newScheduleCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

// printSummary writes sum as indented JSON on the command's stdout
func printSummary(cmd *cobra.Command, sum bfdomain.MultiForceSummary) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
