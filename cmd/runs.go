package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shootplan/api/schedule"
	"github.com/kilianp07/shootplan/app"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/pkg/export"
)

type runsOptions struct {
	project int
	scene   int
	kind    string
	since   string
}

var runsOpts runsOptions

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the schedule run log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			return runRuns(ctx, svc.Manager, runsOpts, cmd.OutOrStdout())
		})
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsOpts.project, "project", 0, "filter by project id")
	runsCmd.Flags().IntVar(&runsOpts.scene, "scene", 0, "filter by scene id")
	runsCmd.Flags().StringVar(&runsOpts.kind, "kind", "", "filter by kind: schedule, reschedule or preview")
	runsCmd.Flags().StringVar(&runsOpts.since, "since", "", "only runs on or after this date (YYYY-MM-DD)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(ctx context.Context, mgr *scheduling.Manager, opts runsOptions, w io.Writer) error {
	q := runlog.Query{ProjectID: opts.project, SceneID: opts.scene, Kind: runlog.Kind(opts.kind)}
	if opts.since != "" {
		d, err := schedule.ParseDate(opts.since)
		if err != nil {
			return err
		}
		q.Start = d.Time
	}
	recs, err := mgr.Runs(ctx, q)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []runlog.Record{}
	}
	return export.WriteJSON(w, recs)
}
