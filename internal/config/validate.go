package config

import (
	"fmt"
	"strings"

	"reelforge/internal/services"
)

// Validate checks configuration values that would otherwise fail deep inside a
// run. Validation failures are configuration errors and fail fast.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.ProjectsDir) == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate", "paths.projects_dir must not be empty", nil)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return services.Wrap(services.ErrConfiguration, "", "validate", "paths.log_dir must not be empty", nil)
	}
	if c.Workflow.MaxWorkers < 1 {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("workflow.max_workers must be at least 1, got %d", c.Workflow.MaxWorkers), nil)
	}
	if c.Workflow.ScenesPerEpisode < 1 {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("workflow.scenes_per_episode must be at least 1, got %d", c.Workflow.ScenesPerEpisode), nil)
	}
	if c.Workflow.DefaultSceneDuration <= 0 {
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("workflow.default_scene_duration must be positive, got %g", c.Workflow.DefaultSceneDuration), nil)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format), nil)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return services.Wrap(services.ErrConfiguration, "", "validate",
			fmt.Sprintf("logging.level %q is not recognized", c.Logging.Level), nil)
	}
	return nil
}
