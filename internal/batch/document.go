package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"reelforge/internal/services"
	"reelforge/internal/tasks"
)

// Document is the portable YAML snapshot of a batch project, used to move
// task state between machines or to reseed an empty store.
type Document struct {
	Project  string          `yaml:"project"`
	SavedAt  time.Time       `yaml:"saved_at"`
	Episodes []EpisodeRecord `yaml:"episodes"`
}

// EpisodeRecord is one task's snapshot inside a Document.
type EpisodeRecord struct {
	TaskID     string       `yaml:"task_id"`
	Episode    int          `yaml:"episode"`
	Status     tasks.Status `yaml:"status"`
	ConfigJSON string       `yaml:"config_json,omitempty"`
	EpisodeDir string       `yaml:"episode_dir,omitempty"`
	ConfigPath string       `yaml:"config_path,omitempty"`
	Error      string       `yaml:"error,omitempty"`
}

// SaveProject writes the project's current task state to a YAML file.
func (p *Producer) SaveProject(ctx context.Context, projectName, path string) error {
	list, err := p.store.ListByProject(ctx, projectName)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return services.Wrap(services.ErrNotFound, "", "batch",
			fmt.Sprintf("project %q has no tasks", projectName), nil)
	}

	doc := Document{
		Project:  projectName,
		SavedAt:  time.Now().UTC(),
		Episodes: make([]EpisodeRecord, 0, len(list)),
	}
	for _, task := range list {
		doc.Episodes = append(doc.Episodes, EpisodeRecord{
			TaskID:     task.TaskID,
			Episode:    task.Episode,
			Status:     task.Status,
			ConfigJSON: task.ConfigJSON,
			EpisodeDir: task.EpisodeDir,
			ConfigPath: task.ConfigPath,
			Error:      task.ErrorMessage,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal batch document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create batch document directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch document: %w", err)
	}
	return nil
}

// LoadProject reads a batch document and registers its tasks in the store.
// The project must not already exist in the store.
func (p *Producer) LoadProject(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse batch document: %w", err)
	}
	if doc.Project == "" {
		return nil, services.Wrap(services.ErrValidation, "", "batch", "batch document has no project name", nil)
	}
	if len(doc.Episodes) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "batch", "batch document has no episodes", nil)
	}

	existing, err := p.store.ListByProject(ctx, doc.Project)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, services.Wrap(services.ErrValidation, "", "batch",
			fmt.Sprintf("project %q already has %d tasks", doc.Project, len(existing)), nil)
	}

	for _, record := range doc.Episodes {
		task := &tasks.Task{
			TaskID:     record.TaskID,
			Project:    doc.Project,
			Name:       record.TaskID,
			Episode:    record.Episode,
			ConfigJSON: record.ConfigJSON,
		}
		if err := p.store.Add(ctx, task); err != nil {
			return nil, err
		}
		// Terminal snapshots keep their recorded outcome.
		if record.Status != "" && record.Status != tasks.StatusPending {
			status := record.Status
			if status == tasks.StatusRunning {
				// A run that never finished restarts from pending.
				continue
			}
			task.Status = status
			task.EpisodeDir = record.EpisodeDir
			task.ConfigPath = record.ConfigPath
			task.ErrorMessage = record.Error
			if err := p.store.Update(ctx, task); err != nil {
				return nil, err
			}
		}
	}
	return &doc, nil
}
