package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shootplan/api/schedule"
	"github.com/kilianp07/shootplan/app"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/infra/logger"
	"github.com/kilianp07/shootplan/pkg/export"
)

type planOptions struct {
	input   string
	output  string
	format  string
	project int
}

var planOpts planOptions

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a shooting schedule from an input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(planOpts.format); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			svc.StartBridge(ctx)
			return writeOutput(planOpts.output, cmd.OutOrStdout(), func(w io.Writer) error {
				return runPlan(ctx, svc.Manager, planOpts, cmd.InOrStdin(), w)
			})
		})
	},
}

func init() {
	planCmd.Flags().StringVarP(&planOpts.input, "input", "i", "", "input file with scenes, cost records and the shooting window")
	planCmd.Flags().StringVarP(&planOpts.output, "output", "o", "", "output file (default stdout)")
	planCmd.Flags().StringVar(&planOpts.format, "format", formatJSON, "output format: json or csv")
	planCmd.Flags().IntVar(&planOpts.project, "project", 1, "project id")
	_ = planCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(planCmd)
}

func runPlan(ctx context.Context, mgr *scheduling.Manager, opts planOptions, stdin io.Reader, w io.Writer) error {
	var req schedule.ScheduleRequest
	if err := readInput(opts.input, stdin, &req); err != nil {
		return err
	}
	res, err := mgr.Schedule(ctx, req.Engine(opts.project))
	if err != nil {
		return err
	}
	if opts.format == formatCSV {
		log := logger.New("plan")
		for _, c := range res.Conflicts {
			log.Warnf("%s (%s): %s", c.Type, c.Severity, c.Message)
		}
		return export.WriteCSV(w, res.Schedule)
	}
	return export.WriteJSON(w, schedule.ScheduleResponse{
		Result:       res,
		CostEstimate: scheduling.NewCostBook(req.CostRecords).EstimateCast(res.Schedule, req.Scenes),
		Scenes:       scheduling.ApplySchedule(req.Scenes, res.Schedule),
	})
}
