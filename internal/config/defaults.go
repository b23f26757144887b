package config

const (
	defaultProjectsDir      = "~/.local/share/reelforge/projects"
	defaultLogDir           = "~/.local/share/reelforge/logs"
	defaultMaxWorkers       = 4
	defaultScenesPerEpisode = 3
	defaultSceneDuration    = 5.0
	defaultStyle            = "anime"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			LogDir:      defaultLogDir,
		},
		Workflow: Workflow{
			MaxWorkers:           defaultMaxWorkers,
			ScenesPerEpisode:     defaultScenesPerEpisode,
			DefaultSceneDuration: defaultSceneDuration,
			DefaultStyle:         defaultStyle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
