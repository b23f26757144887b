package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"reelforge/internal/services"
)

// ConfigFileName is the conventional name of a project document on disk.
const ConfigFileName = "project.yaml"

// Scene describes one shot/beat of the production. Scenes are immutable once
// created and owned exclusively by their project.
type Scene struct {
	ID          string   `yaml:"scene_id"`
	Description string   `yaml:"description"`
	Dialogue    string   `yaml:"dialogue,omitempty"`
	Duration    float64  `yaml:"duration"`
	Style       string   `yaml:"style,omitempty"`
	Characters  []string `yaml:"characters,omitempty"`
	Background  string   `yaml:"background,omitempty"`
	Camera      string   `yaml:"camera,omitempty"`
	Mood        string   `yaml:"mood,omitempty"`
}

// Project is a named output location plus an ordered list of scenes. Scene
// order is significant: it determines concatenation order for derived
// artifacts such as combined subtitles.
type Project struct {
	Name      string         `yaml:"name"`
	OutputDir string         `yaml:"output_dir"`
	Scenes    []Scene        `yaml:"scenes"`
	Settings  map[string]any `yaml:"settings,omitempty"`
}

// Root returns the project's artifact root directory.
func (p *Project) Root() string {
	return filepath.Join(p.OutputDir, p.Name)
}

// Validate checks the project document before any stage runs.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return services.Wrap(services.ErrValidation, "", "project", "name must not be empty", nil)
	}
	if strings.TrimSpace(p.OutputDir) == "" {
		return services.Wrap(services.ErrValidation, "", "project", "output_dir must not be empty", nil)
	}
	if len(p.Scenes) == 0 {
		return services.Wrap(services.ErrValidation, "", "project", "at least one scene is required", nil)
	}
	seen := make(map[string]struct{}, len(p.Scenes))
	for i, scene := range p.Scenes {
		id := strings.TrimSpace(scene.ID)
		if id == "" {
			return services.Wrap(services.ErrValidation, "", "project",
				fmt.Sprintf("scene %d has no scene_id", i+1), nil)
		}
		if _, dup := seen[id]; dup {
			return services.Wrap(services.ErrValidation, "", "project",
				fmt.Sprintf("duplicate scene_id %q", id), nil)
		}
		seen[id] = struct{}{}
		if scene.Duration < 0 {
			return services.Wrap(services.ErrValidation, "", "project",
				fmt.Sprintf("scene %q has negative duration %g", id, scene.Duration), nil)
		}
	}
	return nil
}

// TotalDuration returns the summed target duration of all scenes in seconds.
func (p *Project) TotalDuration() float64 {
	var total float64
	for _, scene := range p.Scenes {
		total += scene.Duration
	}
	return total
}
