package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/project"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var scenes int
	var duration float64
	var style string

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new project with sample scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("project name must not be empty")
			}

			target := strings.TrimSpace(outputDir)
			if target == "" {
				target = cfg.Paths.ProjectsDir
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return err
			}

			if scenes <= 0 {
				scenes = cfg.Workflow.ScenesPerEpisode
			}
			tmpl := project.SceneTemplate{
				Duration: duration,
				Style:    style,
			}
			if tmpl.Duration <= 0 {
				tmpl.Duration = cfg.Workflow.DefaultSceneDuration
			}
			if tmpl.Style == "" {
				tmpl.Style = cfg.Workflow.DefaultStyle
			}

			proj := project.NewSample(name, expanded, scenes, tmpl)
			configPath := filepath.Join(proj.Root(), project.ConfigFileName)
			if err := project.Save(proj, configPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created project %s with %d scenes\n", name, len(proj.Scenes))
			fmt.Fprintf(out, "Project config: %s\n", configPath)
			fmt.Fprintln(out, "Edit the scenes, then produce it with `reelforge run`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to create the project under")
	cmd.Flags().IntVar(&scenes, "scenes", 0, "Number of sample scenes to generate")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Default scene duration in seconds")
	cmd.Flags().StringVar(&style, "style", "", "Visual style applied to sample scenes")
	return cmd
}
