package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/shootplan/api/schedule"
	"github.com/kilianp07/shootplan/app"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/pkg/export"
)

type conflictsOptions struct {
	input  string
	format string
}

var conflictsOpts conflictsOptions

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List location overlaps and actor overloads of a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(conflictsOpts.format); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			return runConflicts(svc.Manager.Engine(), conflictsOpts, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() {
	conflictsCmd.Flags().StringVarP(&conflictsOpts.input, "input", "i", "", "input file with the schedule and scenes")
	conflictsCmd.Flags().StringVar(&conflictsOpts.format, "format", formatJSON, "output format: json or csv")
	_ = conflictsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(conflictsCmd)
}

type conflictsInput struct {
	Schedule []model.Assignment `json:"schedule" yaml:"schedule" validate:"required"`
	Scenes   []model.Scene      `json:"scenes" yaml:"scenes"`
}

func runConflicts(engine *scheduling.Engine, opts conflictsOptions, stdin io.Reader, w io.Writer) error {
	var in conflictsInput
	if err := readInput(opts.input, stdin, &in); err != nil {
		return err
	}
	cs := engine.ListConflicts(in.Schedule, in.Scenes)
	if opts.format == formatCSV {
		return export.WriteConflictsCSV(w, cs)
	}
	if cs == nil {
		cs = []model.Conflict{}
	}
	return export.WriteJSON(w, schedule.ConflictsResponse{Conflicts: cs, Total: len(cs)})
}
