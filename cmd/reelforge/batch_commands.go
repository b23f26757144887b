package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/batch"
	"reelforge/internal/project"
	"reelforge/internal/tasks"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Multi-episode batch production",
	}

	batchCmd.AddCommand(newBatchCreateCommand(ctx))
	batchCmd.AddCommand(newBatchRunCommand(ctx))
	batchCmd.AddCommand(newBatchStatusCommand(ctx))
	batchCmd.AddCommand(newBatchExportCommand(ctx))
	batchCmd.AddCommand(newBatchSaveCommand(ctx))
	batchCmd.AddCommand(newBatchLoadCommand(ctx))

	return batchCmd
}

func newBatchCreateCommand(ctx *commandContext) *cobra.Command {
	var episodes int
	var outputDir string
	var duration float64
	var style string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a batch project as pending episode tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(producer *batch.Producer) error {
				tmpl := project.SceneTemplate{Duration: duration, Style: style}
				created, err := producer.CreateProject(cmd.Context(), args[0], outputDir, episodes, tmpl)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created batch project %s with %d episode task(s)\n", args[0], len(created))
				fmt.Fprintf(out, "Run it with `reelforge batch run %s`\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&episodes, "episodes", "e", 1, "Number of episodes to produce")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to create episodes under")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Default scene duration in seconds")
	cmd.Flags().StringVar(&style, "style", "", "Visual style applied to sample scenes")
	return cmd
}

func newBatchRunCommand(ctx *commandContext) *cobra.Command {
	var parallel bool
	var stagesFlag string

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Execute a batch project's pending episode tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := parseStagesFlag(stagesFlag)
			if err != nil {
				return err
			}
			return ctx.withProducer(func(producer *batch.Producer) error {
				results, err := producer.RunProject(cmd.Context(), args[0], parallel, stages)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderTaskTable(results, colorize))

				failed := 0
				for _, task := range results {
					if task.Status == tasks.StatusFailed {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d episode(s) failed", failed, len(results))
				}
				fmt.Fprintf(out, "All %d episode(s) finished\n", len(results))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "Run episodes on a bounded worker pool")
	cmd.Flags().StringVar(&stagesFlag, "stages", "", "Comma-separated subset of stages to run")
	return cmd
}

func newBatchStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show task counts for one or all batch projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(producer *batch.Producer) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				if len(args) == 1 {
					list, err := producer.Tasks(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if len(list) == 0 {
						return fmt.Errorf("batch project %q has no tasks", args[0])
					}

					rows := make([][]string, 0, len(list))
					for _, task := range list {
						detail := task.EpisodeDir
						if task.ErrorMessage != "" {
							detail = task.ErrorMessage
						}
						rows = append(rows, []string{
							task.TaskID,
							fmt.Sprintf("%d", task.Episode),
							colorizeTaskStatus(task.Status, colorize),
							detail,
						})
					}
					fmt.Fprintln(out, renderTable([]string{"Task", "Episode", "Status", "Detail"}, rows, 2))
					return nil
				}

				stats, err := producer.AllStatus(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(out, "No batch projects found")
					return nil
				}

				names := make([]string, 0, len(stats))
				for name := range stats {
					names = append(names, name)
				}
				sort.Strings(names)

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					counts := stats[name]
					rows = append(rows, []string{
						name,
						fmt.Sprintf("%d", counts.Total),
						fmt.Sprintf("%d", counts.Pending),
						fmt.Sprintf("%d", counts.Running),
						fmt.Sprintf("%d", counts.Completed),
						fmt.Sprintf("%d", counts.Failed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Project", "Total", "Pending", "Running", "Completed", "Failed"},
					rows, 2, 3, 4, 5, 6))
				return nil
			})
		},
	}
}

func newBatchExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var quality string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Collect completed episode renders into the export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(producer *batch.Producer) error {
				exported, err := producer.ExportProject(cmd.Context(), args[0], format, quality)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Exported %d file(s)\n", len(exported))
				dests := make([]string, 0, len(exported))
				for _, dest := range exported {
					dests = append(dests, dest)
				}
				sort.Strings(dests)
				for _, dest := range dests {
					fmt.Fprintf(out, "  %s\n", dest)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "mp4", "Render format to export")
	cmd.Flags().StringVarP(&quality, "quality", "q", "high", "Delivery quality hint")
	return cmd
}

func newBatchSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <file>",
		Short: "Snapshot a batch project's task state to a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(producer *batch.Producer) error {
				if err := producer.SaveProject(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newBatchLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Restore a batch project's tasks from a YAML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProducer(func(producer *batch.Producer) error {
				doc, err := producer.LoadProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s with %d episode(s)\n", doc.Project, len(doc.Episodes))
				return nil
			})
		},
	}
}

func renderTaskTable(results map[string]*tasks.Task, colorize bool) string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		task := results[id]
		detail := task.EpisodeDir
		if task.ErrorMessage != "" {
			detail = task.ErrorMessage
		}
		rows = append(rows, []string{
			id,
			colorizeTaskStatus(task.Status, colorize),
			strings.TrimSpace(detail),
		})
	}
	return renderTable([]string{"Task", "Status", "Detail"}, rows)
}
