package project_test

import (
	"path/filepath"
	"testing"

	"reelforge/internal/project"
)

func sampleProject(t *testing.T) *project.Project {
	t.Helper()
	return project.NewSample("demo", t.TempDir(), 3, project.DefaultSceneTemplate())
}

func TestNewSampleShape(t *testing.T) {
	proj := sampleProject(t)
	if len(proj.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(proj.Scenes))
	}
	if proj.Scenes[0].ID != "01" || proj.Scenes[2].ID != "03" {
		t.Fatalf("unexpected scene ids: %q %q", proj.Scenes[0].ID, proj.Scenes[2].ID)
	}
	if proj.Scenes[0].Dialogue != "" {
		t.Fatalf("scene 1 should have no dialogue, got %q", proj.Scenes[0].Dialogue)
	}
	if proj.Scenes[1].Dialogue == "" {
		t.Fatal("scene 2 should carry dialogue")
	}
	if proj.TotalDuration() != 15.0 {
		t.Fatalf("expected total duration 15.0, got %g", proj.TotalDuration())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	proj := sampleProject(t)
	proj.Settings = map[string]any{"resolution": "1080p"}
	path := filepath.Join(proj.Root(), project.ConfigFileName)

	if err := project.Save(proj, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != proj.Name || loaded.OutputDir != proj.OutputDir {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.Scenes) != len(proj.Scenes) {
		t.Fatalf("expected %d scenes, got %d", len(proj.Scenes), len(loaded.Scenes))
	}
	if loaded.Scenes[1].Dialogue != proj.Scenes[1].Dialogue {
		t.Fatalf("dialogue lost in round trip: %q", loaded.Scenes[1].Dialogue)
	}
	if loaded.Settings["resolution"] != "1080p" {
		t.Fatalf("settings lost in round trip: %+v", loaded.Settings)
	}
}

func TestValidateRejectsBadProjects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*project.Project)
	}{
		{"empty name", func(p *project.Project) { p.Name = "" }},
		{"empty output dir", func(p *project.Project) { p.OutputDir = "" }},
		{"no scenes", func(p *project.Project) { p.Scenes = nil }},
		{"missing scene id", func(p *project.Project) { p.Scenes[0].ID = "" }},
		{"duplicate scene id", func(p *project.Project) { p.Scenes[1].ID = p.Scenes[0].ID }},
		{"negative duration", func(p *project.Project) { p.Scenes[0].Duration = -2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proj := sampleProject(t)
			tc.mutate(proj)
			if err := proj.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, project.ConfigFileName)
	bad := &project.Project{Name: "x", OutputDir: dir}
	if err := project.Save(bad, path); err == nil {
		t.Fatal("expected save of invalid project to fail")
	}
}

func TestRoot(t *testing.T) {
	proj := &project.Project{Name: "demo", OutputDir: "/tmp/projects"}
	if got := proj.Root(); got != filepath.Join("/tmp/projects", "demo") {
		t.Fatalf("unexpected root: %s", got)
	}
}
