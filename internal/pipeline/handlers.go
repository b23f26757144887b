package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/project"
	"reelforge/internal/stage"
	"reelforge/internal/subtitles"
)

// defaultHandlers implements the built-in stage handlers. Generation stages
// emit placeholder artifacts until the external providers are wired in; the
// document stages (script, storyboard, subtitles) produce their real outputs.
type defaultHandlers struct {
	logger *slog.Logger
}

// DefaultRegistry builds the stage registry with the built-in handlers.
func DefaultRegistry(logger *slog.Logger) (*stage.Registry, error) {
	h := &defaultHandlers{logger: logging.NewComponentLogger(logger, "handlers")}
	return stage.NewRegistry(map[stage.Stage]stage.Handler{
		stage.Script:     stage.HandlerFunc(h.script),
		stage.Storyboard: stage.HandlerFunc(h.storyboard),
		stage.Images:     stage.HandlerFunc(h.images),
		stage.Video:      stage.HandlerFunc(h.video),
		stage.Voice:      stage.HandlerFunc(h.voice),
		stage.Music:      stage.HandlerFunc(h.music),
		stage.Subtitles:  stage.HandlerFunc(h.subtitles),
		stage.Edit:       stage.HandlerFunc(h.edit),
		stage.Color:      stage.HandlerFunc(h.color),
		stage.Output:     stage.HandlerFunc(h.output),
	})
}

// script persists the project document under the project root.
func (h *defaultHandlers) script(_ context.Context, proj *project.Project) ([]string, error) {
	path := filepath.Join(proj.Root(), project.ConfigFileName)
	if err := project.Save(proj, path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

type storyboardShot struct {
	ShotID      int     `json:"shot_id"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Camera      string  `json:"camera"`
	Mood        string  `json:"mood"`
}

type storyboardDocument struct {
	SceneID     string           `json:"scene_id"`
	Description string           `json:"description"`
	Shots       []storyboardShot `json:"shots"`
	GeneratedAt string           `json:"generated_at"`
}

// storyboard writes one shot-list document per scene.
func (h *defaultHandlers) storyboard(_ context.Context, proj *project.Project) ([]string, error) {
	dir := filepath.Join(proj.Root(), DirStoryboards)
	files := make([]string, 0, len(proj.Scenes))
	for _, scene := range proj.Scenes {
		doc := storyboardDocument{
			SceneID:     scene.ID,
			Description: scene.Description,
			Shots: []storyboardShot{{
				ShotID:      1,
				Description: scene.Description,
				Duration:    scene.Duration,
				Camera:      scene.Camera,
				Mood:        scene.Mood,
			}},
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal storyboard for scene %s: %w", scene.ID, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("scene_%s.json", scene.ID))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write storyboard for scene %s: %w", scene.ID, err)
		}
		files = append(files, path)
	}
	return files, nil
}

// images emits one frame per scene. Existing files are left untouched so
// re-runs never corrupt previously produced artifacts.
func (h *defaultHandlers) images(ctx context.Context, proj *project.Project) ([]string, error) {
	dir := filepath.Join(proj.Root(), DirImages)
	files := make([]string, 0, len(proj.Scenes))
	for _, scene := range proj.Scenes {
		path := filepath.Join(dir, fmt.Sprintf("scene_%s.png", scene.ID))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logging.WithContext(ctx, h.logger).Debug("image generation pending provider integration",
				logging.String("scene", scene.ID))
			placeholder := fmt.Sprintf("# Placeholder for scene %s\n", scene.ID)
			if err := os.WriteFile(path, []byte(placeholder), 0o644); err != nil {
				return nil, fmt.Errorf("write image for scene %s: %w", scene.ID, err)
			}
		}
		files = append(files, path)
	}
	return files, nil
}

// video resolves the per-scene clip paths the video provider will fill in.
func (h *defaultHandlers) video(ctx context.Context, proj *project.Project) ([]string, error) {
	dir := filepath.Join(proj.Root(), DirVideos)
	files := make([]string, 0, len(proj.Scenes))
	for _, scene := range proj.Scenes {
		path := filepath.Join(dir, fmt.Sprintf("scene_%s.mp4", scene.ID))
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logging.WithContext(ctx, h.logger).Debug("video generation pending provider integration",
				logging.String("scene", scene.ID))
		}
		files = append(files, path)
	}
	return files, nil
}

// voice resolves voiceover paths for scenes that carry dialogue.
func (h *defaultHandlers) voice(ctx context.Context, proj *project.Project) ([]string, error) {
	dir := filepath.Join(proj.Root(), DirVoice)
	var files []string
	for _, scene := range proj.Scenes {
		if scene.Dialogue == "" {
			continue
		}
		logging.WithContext(ctx, h.logger).Debug("voice synthesis pending provider integration",
			logging.String("scene", scene.ID))
		files = append(files, filepath.Join(dir, fmt.Sprintf("scene_%s.wav", scene.ID)))
	}
	return files, nil
}

// music resolves one background track for the whole project.
func (h *defaultHandlers) music(ctx context.Context, proj *project.Project) ([]string, error) {
	logging.WithContext(ctx, h.logger).Debug("music synthesis pending provider integration",
		logging.Int("scenes", len(proj.Scenes)))
	return []string{filepath.Join(proj.Root(), DirMusic, "bgm.wav")}, nil
}

// subtitles writes the combined SRT document with cue boundaries at the
// cumulative scene durations.
func (h *defaultHandlers) subtitles(_ context.Context, proj *project.Project) ([]string, error) {
	cues := subtitles.CuesFromScenes(proj.Scenes)
	path := filepath.Join(proj.Root(), DirSubtitles, "all_subtitles.srt")
	if err := os.WriteFile(path, []byte(subtitles.Render(cues)), 0o644); err != nil {
		return nil, fmt.Errorf("write subtitles: %w", err)
	}
	return []string{path}, nil
}

// edit resolves the combined cut path.
func (h *defaultHandlers) edit(ctx context.Context, proj *project.Project) ([]string, error) {
	logging.WithContext(ctx, h.logger).Debug("edit pending provider integration",
		logging.Int("scenes", len(proj.Scenes)))
	return []string{filepath.Join(proj.Root(), DirOutput, proj.Name+"_unedited.mp4")}, nil
}

// color resolves the graded cut path.
func (h *defaultHandlers) color(ctx context.Context, proj *project.Project) ([]string, error) {
	logging.WithContext(ctx, h.logger).Debug("color grading pending provider integration")
	return []string{filepath.Join(proj.Root(), DirOutput, proj.Name+"_graded.mp4")}, nil
}

// output collects the final renders present under the output directory.
func (h *defaultHandlers) output(_ context.Context, proj *project.Project) ([]string, error) {
	pattern := filepath.Join(proj.Root(), DirOutput, "*.mp4")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("collect final output: %w", err)
	}
	return matches, nil
}
