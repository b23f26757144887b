package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/pipeline"
	"reelforge/internal/project"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stagesFlag string

	cmd := &cobra.Command{
		Use:   "run <project-config>",
		Short: "Produce a project, resuming after completed stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
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

			stages, err := parseStagesFlag(stagesFlag)
			if err != nil {
				return err
			}

			registry, err := pipeline.DefaultRegistry(logger)
			if err != nil {
				return err
			}
			orch, err := pipeline.New(proj, registry, logger)
			if err != nil {
				return err
			}

			results, runErr := orch.Run(cmd.Context(), stages...)

			out := cmd.OutOrStdout()
			if len(results) > 0 {
				fmt.Fprintf(out, "Ran %d stage(s) for %s\n", len(results), proj.Name)
			}
			if runErr != nil {
				return runErr
			}

			report, err := pipeline.LoadReport(proj.Root())
			if err == nil {
				fmt.Fprintf(out, "Production complete in %.1fs (%d scenes)\n", report.TotalDuration, report.Scenes)
			}
			fmt.Fprintf(out, "Artifacts: %s\n", proj.Root())
			return nil
		},
	}

	cmd.Flags().StringVar(&stagesFlag, "stages", "", "Comma-separated subset of stages to run")
	return cmd
}
