package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shootplan/api/schedule"
	"github.com/kilianp07/shootplan/app"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/pkg/export"
)

type rescheduleOptions struct {
	input     string
	output    string
	format    string
	project   int
	scene     int
	date      string
	reason    string
	noCascade bool
}

var rescheduleOpts rescheduleOptions

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Move a scene of an existing schedule and cascade its dependents",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(rescheduleOpts.format); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			svc.StartBridge(ctx)
			return writeOutput(rescheduleOpts.output, cmd.OutOrStdout(), func(w io.Writer) error {
				return runReschedule(ctx, svc.Manager, rescheduleOpts, cmd.InOrStdin(), w)
			})
		})
	},
}

func init() {
	f := rescheduleCmd.Flags()
	f.StringVarP(&rescheduleOpts.input, "input", "i", "", "input file with the current schedule and scenes")
	f.StringVarP(&rescheduleOpts.output, "output", "o", "", "output file (default stdout)")
	f.StringVar(&rescheduleOpts.format, "format", formatJSON, "output format: json or csv")
	f.IntVar(&rescheduleOpts.project, "project", 1, "project id")
	f.IntVar(&rescheduleOpts.scene, "scene", 0, "id of the scene to move")
	f.StringVar(&rescheduleOpts.date, "date", "", "new shooting date (YYYY-MM-DD)")
	f.StringVar(&rescheduleOpts.reason, "reason", "", "reason noted on the moved scene")
	f.BoolVar(&rescheduleOpts.noCascade, "no-cascade", false, "do not move dependent scenes")
	for _, name := range []string{"input", "scene", "date"} {
		_ = rescheduleCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(rescheduleCmd)
}

func runReschedule(ctx context.Context, mgr *scheduling.Manager, opts rescheduleOptions, stdin io.Reader, w io.Writer) error {
	date, err := schedule.ParseDate(opts.date)
	if err != nil {
		return err
	}
	var req schedule.RescheduleRequest
	req.SceneID = opts.scene
	req.NewDate = date
	if err := readInput(opts.input, stdin, &req); err != nil {
		return err
	}
	// Flags win over values carried by the input file.
	req.SceneID = opts.scene
	req.NewDate = date
	if opts.reason != "" {
		req.Reason = opts.reason
	}
	if opts.noCascade {
		off := false
		req.AutoCascade = &off
	}

	res := mgr.Reschedule(ctx, req.Engine(opts.project))
	if !res.Success {
		return fmt.Errorf("reschedule scene %d: %s", opts.scene, res.Message)
	}
	if opts.format == formatCSV {
		return export.WriteCSV(w, res.UpdatedSchedule)
	}
	return export.WriteJSON(w, schedule.RescheduleResponse{
		RescheduleResult: res,
		Scenes:           scheduling.ApplyReschedule(req.Scenes, req.SceneID, res, req.Reason),
	})
}
