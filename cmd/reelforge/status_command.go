package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/pipeline"
	"reelforge/internal/project"
	"reelforge/internal/stage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-config>",
		Short: "Show per-stage progress for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}

			configPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			proj, err := project.Load(configPath)
			if err != nil {
				return err
			}
			state, err := pipeline.LoadState(proj.Root())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			rows := make([][]string, 0, len(stage.All()))
			completed := 0
			for _, st := range stage.All() {
				status := "pending"
				duration := ""
				files := ""
				if result, ok := state.Result(st); ok {
					status = colorizeStageStatus(result.Status, colorize)
					duration = fmt.Sprintf("%.1fs", result.Duration)
					if result.Error != "" {
						files = result.Error
					} else {
						files = fmt.Sprintf("%d", len(result.Files))
					}
				}
				if state.IsCompleted(st) {
					completed++
				}
				rows = append(rows, []string{st.Label(), status, duration, files})
			}

			fmt.Fprintf(out, "Project: %s (%d scenes, %.1fs planned)\n", proj.Name, len(proj.Scenes), proj.TotalDuration())
			fmt.Fprintln(out, renderTable([]string{"Stage", "Status", "Duration", "Files"}, rows, 3, 4))
			fmt.Fprintf(out, "Completed %d of %d stages\n", completed, len(stage.All()))

			if report, err := pipeline.LoadReport(proj.Root()); err == nil {
				fmt.Fprintf(out, "Last run: %s (%.1fs)\n",
					report.CompletedAt.Format("2006-01-02 15:04:05 MST"), report.TotalDuration)
			}
			return nil
		},
	}
}
