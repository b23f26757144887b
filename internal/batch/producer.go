package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"reelforge/internal/config"
	"reelforge/internal/export"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/project"
	"reelforge/internal/services"
	"reelforge/internal/stage"
	"reelforge/internal/tasks"
)

// Producer creates episode tasks for a batch project and executes them
// through the pipeline, sequentially or with a bounded worker pool.
type Producer struct {
	cfg      *config.Config
	store    *tasks.Store
	registry *stage.Registry
	logger   *slog.Logger
	base     *slog.Logger
}

// Option configures optional Producer behavior.
type Option func(*options)

type options struct {
	registry *stage.Registry
}

// WithRegistry overrides the stage registry used for episode runs.
func WithRegistry(registry *stage.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// NewProducer wires a producer around the task store. Without WithRegistry it
// uses the default stage handlers.
func NewProducer(cfg *config.Config, store *tasks.Store, logger *slog.Logger, opts ...Option) (*Producer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "batch", "config is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "batch", "task store is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	registry := settings.registry
	if registry == nil {
		built, err := pipeline.DefaultRegistry(logger)
		if err != nil {
			return nil, err
		}
		registry = built
	}

	return &Producer{
		cfg:      cfg,
		store:    store,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "batch"),
		base:     logger,
	}, nil
}

// TaskID returns the identifier used for one episode of a batch project.
func TaskID(projectName string, episode int) string {
	return fmt.Sprintf("%s-ep%02d", projectName, episode)
}

// CreateProject registers episodeCount pending tasks for a new batch project.
// Each task carries the full episode project document so runs need nothing but
// the store. outputDir defaults to the configured projects directory.
func (p *Producer) CreateProject(ctx context.Context, projectName, outputDir string, episodeCount int, tmpl project.SceneTemplate) ([]*tasks.Task, error) {
	if projectName == "" {
		return nil, services.Wrap(services.ErrValidation, "", "batch", "project name must not be empty", nil)
	}
	if episodeCount < 1 {
		return nil, services.Wrap(services.ErrValidation, "", "batch",
			fmt.Sprintf("episode count must be at least 1, got %d", episodeCount), nil)
	}

	if outputDir == "" {
		outputDir = p.cfg.Paths.ProjectsDir
	}
	expanded, err := config.ExpandPath(outputDir)
	if err != nil {
		return nil, err
	}
	batchRoot := filepath.Join(expanded, projectName)

	existing, err := p.store.ListByProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, services.Wrap(services.ErrValidation, "", "batch",
			fmt.Sprintf("project %q already has %d tasks", projectName, len(existing)), nil)
	}

	scenes := p.cfg.Workflow.ScenesPerEpisode
	created := make([]*tasks.Task, 0, episodeCount)
	for episode := 1; episode <= episodeCount; episode++ {
		episodeName := TaskID(projectName, episode)
		proj := project.NewSample(episodeName, batchRoot, scenes, tmpl)
		payload, err := json.Marshal(proj)
		if err != nil {
			return nil, fmt.Errorf("encode episode config: %w", err)
		}

		task := &tasks.Task{
			TaskID:     episodeName,
			Project:    projectName,
			Name:       episodeName,
			Episode:    episode,
			ConfigJSON: string(payload),
		}
		if err := p.store.Add(ctx, task); err != nil {
			return nil, err
		}
		created = append(created, task)
	}

	p.logger.Info("batch project created",
		logging.String(logging.FieldProject, projectName),
		logging.Int("episodes", episodeCount),
		logging.String("output_dir", batchRoot),
	)
	return created, nil
}

// RunProject executes every pending task of a project. Terminal tasks are
// left untouched. The returned map holds the final record for every task,
// keyed by task ID; an episode failure is captured on its task rather than
// aborting the batch.
func (p *Producer) RunProject(ctx context.Context, projectName string, parallel bool, stages []stage.Stage) (map[string]*tasks.Task, error) {
	list, err := p.store.ListByProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "", "batch",
			fmt.Sprintf("project %q has no tasks", projectName), nil)
	}

	runnable := make([]*tasks.Task, 0, len(list))
	results := make(map[string]*tasks.Task, len(list))
	for _, task := range list {
		if task.Status.IsTerminal() {
			results[task.TaskID] = task
			continue
		}
		runnable = append(runnable, task)
	}

	p.logger.Info("batch run started",
		logging.String(logging.FieldProject, projectName),
		logging.Int("tasks", len(runnable)),
		logging.Bool("parallel", parallel),
	)

	if parallel {
		p.runParallel(ctx, runnable, stages)
	} else {
		for _, task := range runnable {
			p.executeTask(ctx, task, stages)
		}
	}

	for _, task := range runnable {
		results[task.TaskID] = task
	}
	return results, nil
}

// runParallel fans tasks out over a bounded worker pool. Each goroutine owns
// exactly one task record, so no result slot is shared.
func (p *Producer) runParallel(ctx context.Context, runnable []*tasks.Task, stages []stage.Stage) {
	workers := p.cfg.Workflow.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, task := range runnable {
		wg.Add(1)
		go func(task *tasks.Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			p.executeTask(ctx, task, stages)
		}(task)
	}
	wg.Wait()
}

// executeTask runs one episode through the pipeline and records the outcome
// on the task. Errors are absorbed into the task record.
func (p *Producer) executeTask(ctx context.Context, task *tasks.Task, stages []stage.Stage) {
	taskCtx := services.WithProject(ctx, task.Project)
	taskCtx = services.WithTaskID(taskCtx, task.TaskID)
	taskLogger := logging.WithContext(taskCtx, p.logger)

	task.SetRunning()
	if err := p.store.Update(taskCtx, task); err != nil {
		task.SetFailed(err.Error())
		taskLogger.Error("failed to mark task running", logging.Error(err))
		return
	}

	proj, err := decodeEpisode(task.ConfigJSON)
	if err != nil {
		p.failTask(taskCtx, task, err)
		return
	}

	orch, err := pipeline.New(proj, p.registry, p.base)
	if err != nil {
		p.failTask(taskCtx, task, err)
		return
	}
	if _, err := orch.Run(taskCtx, stages...); err != nil {
		p.failTask(taskCtx, task, err)
		return
	}

	task.SetCompleted(proj.Root(), filepath.Join(proj.Root(), project.ConfigFileName))
	if err := p.store.Update(taskCtx, task); err != nil {
		taskLogger.Error("failed to record task completion", logging.Error(err))
		return
	}
	taskLogger.Info("task completed", logging.String("episode_dir", task.EpisodeDir))
}

func (p *Producer) failTask(ctx context.Context, task *tasks.Task, cause error) {
	task.SetFailed(cause.Error())
	if err := p.store.Update(ctx, task); err != nil {
		p.logger.Error("failed to record task failure",
			logging.String(logging.FieldTaskID, task.TaskID),
			logging.Error(err),
		)
	}
	p.logger.Warn("task failed",
		logging.String(logging.FieldTaskID, task.TaskID),
		logging.Error(cause),
	)
}

func decodeEpisode(configJSON string) (*project.Project, error) {
	if configJSON == "" {
		return nil, services.Wrap(services.ErrValidation, "", "batch", "task has no episode config", nil)
	}
	var proj project.Project
	if err := json.Unmarshal([]byte(configJSON), &proj); err != nil {
		return nil, fmt.Errorf("decode episode config: %w", err)
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Status returns task counts for one project.
func (p *Producer) Status(ctx context.Context, projectName string) (tasks.StatusCounts, error) {
	return p.store.Stats(ctx, projectName)
}

// AllStatus returns task counts for every project in the store.
func (p *Producer) AllStatus(ctx context.Context) (map[string]tasks.StatusCounts, error) {
	return p.store.ProjectStats(ctx)
}

// Tasks returns a project's tasks in episode order.
func (p *Producer) Tasks(ctx context.Context, projectName string) ([]*tasks.Task, error) {
	return p.store.ListByProject(ctx, projectName)
}

// ExportProject gathers the final renders of every completed episode into the
// batch's export directory, returning a map from source render to destination.
// Episodes that never completed are skipped. Quality is forwarded to the
// export collaborator as a delivery hint.
func (p *Producer) ExportProject(ctx context.Context, projectName, format, quality string) (map[string]string, error) {
	list, err := p.store.ListByProject(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "", "batch",
			fmt.Sprintf("project %q has no tasks", projectName), nil)
	}

	var episodeDirs []string
	var batchRoot string
	for _, task := range list {
		if task.Status != tasks.StatusCompleted || task.EpisodeDir == "" {
			continue
		}
		episodeDirs = append(episodeDirs, task.EpisodeDir)
		if batchRoot == "" {
			batchRoot = filepath.Dir(task.EpisodeDir)
		}
	}
	if len(episodeDirs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "batch",
			fmt.Sprintf("project %q has no completed episodes to export", projectName), nil)
	}

	exported, err := export.Episodes(filepath.Join(batchRoot, "export"), format, episodeDirs)
	if err != nil {
		return nil, err
	}

	p.logger.Info("batch export complete",
		logging.String(logging.FieldProject, projectName),
		logging.Int("files", len(exported)),
		logging.String("format", format),
		logging.String("quality", quality),
	)
	return exported, nil
}
