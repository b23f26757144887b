package project

import "fmt"

// SceneTemplate carries the per-scene defaults applied when instantiating a
// project from a template (CLI init, batch episodes).
type SceneTemplate struct {
	Duration float64 `yaml:"duration"`
	Style    string  `yaml:"style,omitempty"`
	Camera   string  `yaml:"camera,omitempty"`
	Mood     string  `yaml:"mood,omitempty"`
}

// DefaultSceneTemplate returns the template used when the caller supplies none.
func DefaultSceneTemplate() SceneTemplate {
	return SceneTemplate{
		Duration: 5.0,
		Style:    "anime",
		Camera:   "static",
		Mood:     "neutral",
	}
}

func (t SceneTemplate) normalized() SceneTemplate {
	def := DefaultSceneTemplate()
	if t.Duration <= 0 {
		t.Duration = def.Duration
	}
	if t.Style == "" {
		t.Style = def.Style
	}
	if t.Camera == "" {
		t.Camera = def.Camera
	}
	if t.Mood == "" {
		t.Mood = def.Mood
	}
	return t
}

// NewSample creates a quick project with numScenes placeholder scenes.
// Every second scene carries dialogue so voice and subtitle stages have
// material to work with.
func NewSample(name, outputDir string, numScenes int, tmpl SceneTemplate) *Project {
	tmpl = tmpl.normalized()
	if numScenes < 1 {
		numScenes = 1
	}

	scenes := make([]Scene, 0, numScenes)
	for i := 1; i <= numScenes; i++ {
		scene := Scene{
			ID:          fmt.Sprintf("%02d", i),
			Description: fmt.Sprintf("Scene %d: sample scene", i),
			Duration:    tmpl.Duration,
			Style:       tmpl.Style,
			Camera:      tmpl.Camera,
			Mood:        tmpl.Mood,
		}
		if i%2 == 0 {
			scene.Dialogue = fmt.Sprintf("Dialogue for scene %d", i)
		}
		scenes = append(scenes, scene)
	}

	return &Project{
		Name:      name,
		OutputDir: outputDir,
		Scenes:    scenes,
	}
}
