package pipeline_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/project"
	"reelforge/internal/stage"
)

func runDefaultStages(t *testing.T, proj *project.Project, stages ...stage.Stage) map[stage.Stage][]string {
	t.Helper()
	registry, err := pipeline.DefaultRegistry(logging.NewNop())
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	orch, err := pipeline.New(proj, registry, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	results, err := orch.Run(t.Context(), stages...)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return results
}

func TestScriptStageWritesProjectDocument(t *testing.T) {
	proj := project.NewSample("demo", t.TempDir(), 3, project.DefaultSceneTemplate())
	results := runDefaultStages(t, proj, stage.Script)

	files := results[stage.Script]
	if len(files) != 1 {
		t.Fatalf("expected one artifact, got %v", files)
	}
	loaded, err := project.Load(files[0])
	if err != nil {
		t.Fatalf("written project document does not load: %v", err)
	}
	if loaded.Name != "demo" || len(loaded.Scenes) != 3 {
		t.Fatalf("unexpected document: %+v", loaded)
	}
}

func TestStoryboardStageWritesShotLists(t *testing.T) {
	proj := project.NewSample("demo", t.TempDir(), 2, project.DefaultSceneTemplate())
	results := runDefaultStages(t, proj, stage.Storyboard)

	files := results[stage.Storyboard]
	if len(files) != 2 {
		t.Fatalf("expected one storyboard per scene, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read storyboard: %v", err)
	}
	var doc struct {
		SceneID string `json:"scene_id"`
		Shots   []struct {
			Duration float64 `json:"duration"`
			Camera   string  `json:"camera"`
		} `json:"shots"`
		GeneratedAt string `json:"generated_at"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse storyboard: %v", err)
	}
	if doc.SceneID != "01" || len(doc.Shots) != 1 || doc.Shots[0].Duration != 5.0 || doc.Shots[0].Camera != "static" {
		t.Fatalf("unexpected storyboard document: %+v", doc)
	}
	if doc.GeneratedAt == "" {
		t.Fatal("storyboard missing generated_at timestamp")
	}
}

func TestImagesStageIsIdempotent(t *testing.T) {
	proj := project.NewSample("demo", t.TempDir(), 1, project.DefaultSceneTemplate())
	results := runDefaultStages(t, proj, stage.Images)

	files := results[stage.Images]
	if len(files) != 1 {
		t.Fatalf("expected one image, got %v", files)
	}

	// Overwrite with provider output, then re-run on a fresh orchestrator
	// with cleared state: the existing artifact must survive.
	if err := os.WriteFile(files[0], []byte("real image bytes"), 0o644); err != nil {
		t.Fatalf("overwrite image: %v", err)
	}
	registry, err := pipeline.DefaultRegistry(logging.NewNop())
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	orch, err := pipeline.New(proj, registry, logging.NewNop(), pipeline.WithRunState(pipeline.NewRunState()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := orch.Run(t.Context(), stage.Images); err != nil {
		t.Fatalf("re-run failed: %v", err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil || string(data) != "real image bytes" {
		t.Fatalf("existing artifact was clobbered: %q %v", data, err)
	}
}

func TestVoiceStageOnlyCoversDialogueScenes(t *testing.T) {
	proj := project.NewSample("demo", t.TempDir(), 4, project.DefaultSceneTemplate())
	results := runDefaultStages(t, proj, stage.Voice)

	// Scenes 2 and 4 carry dialogue in the sample template.
	files := results[stage.Voice]
	if len(files) != 2 {
		t.Fatalf("expected 2 voice artifacts, got %v", files)
	}
	for _, f := range files {
		base := filepath.Base(f)
		if base != "scene_02.wav" && base != "scene_04.wav" {
			t.Fatalf("unexpected voice artifact %s", base)
		}
	}
}

func TestSubtitlesStageWritesCueDocument(t *testing.T) {
	proj := &project.Project{
		Name:      "demo",
		OutputDir: t.TempDir(),
		Scenes: []project.Scene{
			{ID: "01", Description: "opening", Duration: 5.0, Dialogue: "First"},
			{ID: "02", Description: "middle", Duration: 3.5, Dialogue: "Second"},
			{ID: "03", Description: "ending", Duration: 2.0},
		},
	}
	results := runDefaultStages(t, proj, stage.Subtitles)

	files := results[stage.Subtitles]
	if len(files) != 1 {
		t.Fatalf("expected one subtitle file, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read subtitles: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "00:00:05,000 --> 00:00:08,500") {
		t.Fatalf("second cue boundaries wrong:\n%s", content)
	}
	if !strings.Contains(content, "Second") {
		t.Fatalf("dialogue missing from cue document:\n%s", content)
	}
}

func TestOutputStageCollectsFinalRenders(t *testing.T) {
	proj := project.NewSample("demo", t.TempDir(), 1, project.DefaultSceneTemplate())
	if err := pipeline.EnsureTree(proj.Root()); err != nil {
		t.Fatalf("EnsureTree failed: %v", err)
	}
	finalPath := filepath.Join(proj.Root(), pipeline.DirOutput, "demo_graded.mp4")
	if err := os.WriteFile(finalPath, []byte("video"), 0o644); err != nil {
		t.Fatalf("seed final render: %v", err)
	}

	results := runDefaultStages(t, proj, stage.Output)
	files := results[stage.Output]
	if len(files) != 1 || files[0] != finalPath {
		t.Fatalf("expected final render collected, got %v", files)
	}
}
