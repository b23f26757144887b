package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/project"
	"reelforge/internal/stage"
	"reelforge/internal/tasks"
	"reelforge/internal/testsupport"
)

func newProducer(t *testing.T, opts ...Option) (*Producer, *tasks.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithMaxWorkers(2))
	store := testsupport.MustOpenStore(t, cfg)
	producer, err := NewProducer(cfg, store, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewProducer returned error: %v", err)
	}
	return producer, store
}

// stubRegistry builds a registry where every stage succeeds except when
// failFor matches the episode, in which case the video stage errors.
func stubRegistry(t *testing.T, failFor string) *stage.Registry {
	t.Helper()
	handlers := make(map[stage.Stage]stage.Handler, len(stage.All()))
	for _, st := range stage.All() {
		st := st
		handlers[st] = stage.HandlerFunc(func(ctx context.Context, proj *project.Project) ([]string, error) {
			if st == stage.Video && proj.Name == failFor {
				return nil, errors.New("render backend unavailable")
			}
			return nil, nil
		})
	}
	registry, err := stage.NewRegistry(handlers)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	return registry
}

func TestCreateProjectRegistersPendingTasks(t *testing.T) {
	producer, store := newProducer(t)
	ctx := context.Background()

	created, err := producer.CreateProject(ctx, "demo", "", 3, project.DefaultSceneTemplate())
	if err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(created))
	}

	for i, task := range created {
		wantID := fmt.Sprintf("demo-ep%02d", i+1)
		if task.TaskID != wantID {
			t.Fatalf("expected task id %s, got %s", wantID, task.TaskID)
		}
		if task.Status != tasks.StatusPending {
			t.Fatalf("expected pending task, got %s", task.Status)
		}
		proj, err := decodeEpisode(task.ConfigJSON)
		if err != nil {
			t.Fatalf("decode episode config: %v", err)
		}
		if proj.Name != wantID {
			t.Fatalf("expected episode project name %s, got %s", wantID, proj.Name)
		}
		if len(proj.Scenes) != 3 {
			t.Fatalf("expected 3 scenes per episode, got %d", len(proj.Scenes))
		}
	}

	stored, err := store.ListByProject(ctx, "demo")
	if err != nil {
		t.Fatalf("ListByProject returned error: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored tasks, got %d", len(stored))
	}
}

func TestCreateProjectRejectsExisting(t *testing.T) {
	producer, _ := newProducer(t)
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 2, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if _, err := producer.CreateProject(ctx, "demo", "", 2, project.SceneTemplate{}); err == nil {
		t.Fatal("expected duplicate project creation to fail")
	}
}

func TestCreateProjectValidatesInput(t *testing.T) {
	producer, _ := newProducer(t)
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "", "", 2, project.SceneTemplate{}); err == nil {
		t.Fatal("expected empty project name to be rejected")
	}
	if _, err := producer.CreateProject(ctx, "demo", "", 0, project.SceneTemplate{}); err == nil {
		t.Fatal("expected zero episode count to be rejected")
	}
}

func TestRunProjectSequentialCompletesAllEpisodes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithScenesPerEpisode(2))
	store := testsupport.MustOpenStore(t, cfg)
	producer, err := NewProducer(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewProducer returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 3, project.SceneTemplate{Duration: 5.0}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}

	results, err := producer.RunProject(ctx, "demo", false, nil)
	if err != nil {
		t.Fatalf("RunProject returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	episodeDirs := make(map[string]struct{}, len(results))
	for taskID, task := range results {
		if task.Status != tasks.StatusCompleted {
			t.Fatalf("expected %s completed, got %s (%s)", taskID, task.Status, task.ErrorMessage)
		}
		if _, err := os.Stat(task.ConfigPath); err != nil {
			t.Fatalf("expected episode config at %s: %v", task.ConfigPath, err)
		}
		if _, err := pipeline.LoadReport(task.EpisodeDir); err != nil {
			t.Fatalf("expected production report in %s: %v", task.EpisodeDir, err)
		}
		episodeDirs[task.EpisodeDir] = struct{}{}
	}
	if len(episodeDirs) != 3 {
		t.Fatalf("expected 3 distinct episode directories, got %v", episodeDirs)
	}

	counts, err := producer.Status(ctx, "demo")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if counts.Completed != 3 || counts.Failed != 0 || counts.Total != 3 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestRunProjectIsolatesEpisodeFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			producer, _ := newProducer(t, WithRegistry(stubRegistry(t, "demo-ep03")))
			ctx := context.Background()

			if _, err := producer.CreateProject(ctx, "demo", "", 5, project.SceneTemplate{}); err != nil {
				t.Fatalf("CreateProject returned error: %v", err)
			}

			results, err := producer.RunProject(ctx, "demo", parallel, nil)
			if err != nil {
				t.Fatalf("RunProject returned error: %v", err)
			}
			if len(results) != 5 {
				t.Fatalf("expected 5 results, got %d", len(results))
			}

			for taskID, task := range results {
				if taskID == "demo-ep03" {
					if task.Status != tasks.StatusFailed {
						t.Fatalf("expected demo-ep03 failed, got %s", task.Status)
					}
					if task.ErrorMessage == "" {
						t.Fatal("expected failure message on demo-ep03")
					}
					continue
				}
				if task.Status != tasks.StatusCompleted {
					t.Fatalf("expected %s completed, got %s (%s)", taskID, task.Status, task.ErrorMessage)
				}
			}

			counts, err := producer.Status(ctx, "demo")
			if err != nil {
				t.Fatalf("Status returned error: %v", err)
			}
			if counts.Completed != 4 || counts.Failed != 1 {
				t.Fatalf("unexpected counts: %+v", counts)
			}
		})
	}
}

func TestRunProjectSkipsTerminalTasks(t *testing.T) {
	producer, store := newProducer(t, WithRegistry(stubRegistry(t, "")))
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 2, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if _, err := producer.RunProject(ctx, "demo", false, nil); err != nil {
		t.Fatalf("first RunProject returned error: %v", err)
	}

	first, err := store.GetByTaskID(ctx, "demo-ep01")
	if err != nil {
		t.Fatalf("GetByTaskID returned error: %v", err)
	}

	results, err := producer.RunProject(ctx, "demo", false, nil)
	if err != nil {
		t.Fatalf("second RunProject returned error: %v", err)
	}
	second := results["demo-ep01"]
	if second.Status != tasks.StatusCompleted {
		t.Fatalf("expected completed, got %s", second.Status)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatal("expected completed task to be untouched on re-run")
	}
}

func TestRunProjectUnknownProject(t *testing.T) {
	producer, _ := newProducer(t)
	if _, err := producer.RunProject(context.Background(), "ghost", false, nil); err == nil {
		t.Fatal("expected unknown project to be rejected")
	}
}

func TestRunProjectStageSubset(t *testing.T) {
	producer, _ := newProducer(t)
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 1, project.DefaultSceneTemplate()); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}

	results, err := producer.RunProject(ctx, "demo", false, []stage.Stage{stage.Script, stage.Subtitles})
	if err != nil {
		t.Fatalf("RunProject returned error: %v", err)
	}
	task := results["demo-ep01"]
	if task.Status != tasks.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", task.Status, task.ErrorMessage)
	}

	state, err := pipeline.LoadState(task.EpisodeDir)
	if err != nil {
		t.Fatalf("LoadState returned error: %v", err)
	}
	completed := state.Completed()
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed stages, got %v", completed)
	}
	if completed[0] != stage.Script || completed[1] != stage.Subtitles {
		t.Fatalf("unexpected completed stages: %v", completed)
	}
}

func TestSaveAndLoadProject(t *testing.T) {
	producer, _ := newProducer(t, WithRegistry(stubRegistry(t, "demo-ep02")))
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 2, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if _, err := producer.RunProject(ctx, "demo", false, nil); err != nil {
		t.Fatalf("RunProject returned error: %v", err)
	}

	docPath := filepath.Join(t.TempDir(), "demo.yaml")
	if err := producer.SaveProject(ctx, "demo", docPath); err != nil {
		t.Fatalf("SaveProject returned error: %v", err)
	}

	restored, _ := newProducer(t)
	doc, err := restored.LoadProject(ctx, docPath)
	if err != nil {
		t.Fatalf("LoadProject returned error: %v", err)
	}
	if doc.Project != "demo" || len(doc.Episodes) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}

	counts, err := restored.Status(ctx, "demo")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if counts.Completed != 1 || counts.Failed != 1 {
		t.Fatalf("unexpected restored counts: %+v", counts)
	}
}

func TestLoadProjectRejectsExisting(t *testing.T) {
	producer, _ := newProducer(t, WithRegistry(stubRegistry(t, "")))
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 1, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	docPath := filepath.Join(t.TempDir(), "demo.yaml")
	if err := producer.SaveProject(ctx, "demo", docPath); err != nil {
		t.Fatalf("SaveProject returned error: %v", err)
	}
	if _, err := producer.LoadProject(ctx, docPath); err == nil {
		t.Fatal("expected load into populated project to fail")
	}
}

func TestExportProjectCollectsCompletedRenders(t *testing.T) {
	producer, _ := newProducer(t, WithRegistry(stubRegistry(t, "demo-ep02")))
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 2, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	results, err := producer.RunProject(ctx, "demo", false, nil)
	if err != nil {
		t.Fatalf("RunProject returned error: %v", err)
	}

	completed := results["demo-ep01"]
	render := filepath.Join(completed.EpisodeDir, "output", "demo-ep01.mp4")
	if err := os.WriteFile(render, []byte("final render"), 0o644); err != nil {
		t.Fatalf("seed render: %v", err)
	}

	exported, err := producer.ExportProject(ctx, "demo", "mp4", "high")
	if err != nil {
		t.Fatalf("ExportProject returned error: %v", err)
	}
	if len(exported) != 1 {
		t.Fatalf("expected 1 exported render, got %d: %v", len(exported), exported)
	}
	dest, ok := exported[render]
	if !ok {
		t.Fatalf("expected export entry for %s, got %v", render, exported)
	}
	if filepath.Base(dest) != "demo-ep01.mp4" {
		t.Fatalf("unexpected export destination %s", dest)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected exported file at %s: %v", dest, err)
	}
}

func TestExportProjectRequiresCompletedEpisodes(t *testing.T) {
	producer, _ := newProducer(t)
	ctx := context.Background()

	if _, err := producer.CreateProject(ctx, "demo", "", 1, project.SceneTemplate{}); err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if _, err := producer.ExportProject(ctx, "demo", "mp4", "high"); err == nil {
		t.Fatal("expected export of never-run project to fail")
	}
}

func TestAllStatusGroupsProjects(t *testing.T) {
	producer, _ := newProducer(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta"} {
		if _, err := producer.CreateProject(ctx, name, "", 2, project.SceneTemplate{}); err != nil {
			t.Fatalf("CreateProject returned error: %v", err)
		}
	}

	stats, err := producer.AllStatus(ctx)
	if err != nil {
		t.Fatalf("AllStatus returned error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(stats))
	}
	if stats["alpha"].Pending != 2 || stats["beta"].Pending != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
