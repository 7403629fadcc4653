package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"stopsearch/internal/modkit/module"
	"stopsearch/internal/platform/supervisor"
	"stopsearch/internal/services/api"
	stopsmod "stopsearch/internal/services/api/stops/module"
	backfillmod "stopsearch/internal/services/backfill/module"
	"stopsearch/internal/services/scheduler"
)

// scheduleFlags override CORE_SCHEDULE_AT and CORE_SCHEDULE_TZ
type scheduleFlags struct {
	at, tz string
}

func (f *scheduleFlags) options(cmd *cobra.Command, base scheduler.Options) scheduler.Options {
	if cmd.Flags().Changed("at") {
		base.At = f.at
	}
	if cmd.Flags().Changed("tz") {
		base.TZ = f.tz
	}
	return base
}

func (e *env) scheduler(cmd *cobra.Command, f *scheduleFlags) (*scheduler.Scheduler, error) {
	bf, err := e.backfill(backfillmod.FromConfig(e.cfg), nil)
	if err != nil {
		return nil, err
	}
	s, err := scheduler.New(bf.Runner, f.options(cmd, scheduler.FromConfig(e.cfg)))
	if err != nil {
		return nil, failure("invalid schedule", err)
	}
	return s, nil
}

func newScheduleCommand() *cobra.Command {
	f := &scheduleFlags{}
	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Run the job every day at a wall clock time until interrupted",
		Example: "  stopsearch-etl schedule --at 02:00 --tz Europe/London",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			s, err := e.scheduler(cmd, f)
			if err != nil {
				return err
			}
			return ignoreCancel(s.Serve(ctx))
		},
	}
	cmd.Flags().StringVar(&f.at, "at", "02:00", "daily run time HH:MM")
	cmd.Flags().StringVar(&f.tz, "tz", "Europe/London", "IANA time zone for --at")
	return cmd
}

func newServeCommand() *cobra.Command {
	f := &scheduleFlags{}
	var noSchedule bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and /metrics, running the daily job in the same process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			opts := api.FromConfig(e.cfg)
			if e.etl.Registry != nil {
				opts.Metrics = e.etl.Registry.Handler()
			}
			mods := []module.Module{stopsmod.New(e.deps, e.etl.Query)}

			tree := supervisor.New("stopsearch", e.log, supervisor.FromConfig(e.cfg))
			tree.Add(api.NewServer(opts, mods...))
			if !noSchedule {
				s, err := e.scheduler(cmd, f)
				if err != nil {
					return err
				}
				tree.Add(s)
			}
			return ignoreCancel(tree.Serve(ctx))
		},
	}
	cmd.Flags().StringVar(&f.at, "at", "02:00", "daily run time HH:MM")
	cmd.Flags().StringVar(&f.tz, "tz", "Europe/London", "IANA time zone for --at")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API without the daily job")
	return cmd
}

// ignoreCancel treats shutdown by signal as success
func ignoreCancel(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return failure("stopped", err)
}
