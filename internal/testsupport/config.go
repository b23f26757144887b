// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// WithMaxWorkers overrides the batch worker limit on the test config.
func WithMaxWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxWorkers = workers
	}
}

// WithScenesPerEpisode overrides the episode scene count on the test config.
func WithScenesPerEpisode(scenes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.ScenesPerEpisode = scenes
	}
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectsDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}
