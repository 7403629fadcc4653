package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	backfillmod "stopsearch/internal/services/backfill/module"
)

// backfillFlags mirror CORE_BACKFILL_*; only flags set on the command line override config
type backfillFlags struct {
	forces     []string
	since      string
	order      string
	concurrent bool
	workers    int
}

func (f *backfillFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.forces, "force", nil, "force ids to backfill (repeat or comma separate); default STOPSEARCH_FORCES")
	fs.StringVar(&f.since, "since", "", "skip months before YYYY-MM")
	fs.StringVar(&f.order, "order", "", "month order: upstream, asc or desc")
	fs.BoolVar(&f.concurrent, "concurrent", false, "process months of a force concurrently")
	fs.IntVar(&f.workers, "workers", 0, "worker pool size for --concurrent")
}

// apply overlays the flags the user actually set onto opts
func (f *backfillFlags) apply(fs *pflag.FlagSet, opts *backfillmod.Options) {
	if fs.Changed("since") {
		opts.Since = f.since
	}
	if fs.Changed("order") {
		opts.Order = f.order
	}
	if fs.Changed("concurrent") {
		opts.Concurrent = f.concurrent
	}
	if fs.Changed("workers") {
		opts.Workers = f.workers
	}
}

func newBackfillCommand() *cobra.Command {
	f := &backfillFlags{}
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill every available month for one or more forces",
		Example: `  stopsearch-etl backfill --force metropolitan --force kent --since 2023-01
  stopsearch-etl backfill --force essex --concurrent --workers 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			opts := backfillmod.FromConfig(e.cfg)
			f.apply(cmd.Flags(), &opts)
			bf, err := e.backfill(opts, f.forces)
			if err != nil {
				return err
			}

			forces := f.forces
			if len(forces) == 0 {
				forces = e.app.Forces
			}
			sum := bf.Runner.RunBackfill(ctx, forces)
			if err := printSummary(cmd, sum); err != nil {
				return failure("write summary", err)
			}
			if err := ctx.Err(); err != nil {
				return failure("interrupted", err)
			}
			return summaryErr(sum)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newRunOnceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Run the daily job now for every configured force",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			bf, err := e.backfill(backfillmod.FromConfig(e.cfg), nil)
			if err != nil {
				return err
			}
			sum := bf.Runner.RunOnce(ctx)
			if err := printSummary(cmd, sum); err != nil {
				return failure("write summary", err)
			}
			return summaryErr(sum)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the record schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close(cmd.Context())
			e.log.Info().Str("driver", e.st.Driver).Msg("schema up to date")
			return nil
		},
	}
}
