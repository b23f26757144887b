package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact directory names under a project root. Stage handlers locate
// prior-stage outputs through this fixed convention.
const (
	DirScenes      = "scenes"
	DirStoryboards = "storyboards"
	DirImages      = "images"
	DirVideos      = "videos"
	DirVoice       = "audio/voice"
	DirMusic       = "audio/music"
	DirSubtitles   = "subtitles"
	DirOutput      = "output"
	DirLogs        = "logs"
)

// ArtifactDirs returns the fixed sub-directory tree created under every
// project root.
func ArtifactDirs() []string {
	return []string{
		DirScenes,
		DirStoryboards,
		DirImages,
		DirVideos,
		DirVoice,
		DirMusic,
		DirSubtitles,
		DirOutput,
		DirLogs,
	}
}

// EnsureTree creates the artifact directory tree under root. Creating an
// already-existing directory is not an error.
func EnsureTree(root string) error {
	for _, dir := range ArtifactDirs() {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("create artifact directory %q: %w", dir, err)
		}
	}
	return nil
}
