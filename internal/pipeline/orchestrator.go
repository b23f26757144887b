package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelforge/internal/logging"
	"reelforge/internal/project"
	"reelforge/internal/services"
	"reelforge/internal/stage"
)

// lockFileName guards a project root against concurrent producers.
const lockFileName = ".reelforge.lock"

// Orchestrator executes a project through the stage registry. The project is
// read-only input; the orchestrator's only mutable memory is its RunState.
type Orchestrator struct {
	proj     *project.Project
	registry *stage.Registry
	logger   *slog.Logger
	state    *RunState
}

// Option configures optional Orchestrator behavior.
type Option func(*options)

type options struct {
	state *RunState
}

// WithRunState seeds the orchestrator with an explicit run state instead of
// loading the persisted state from the project root.
func WithRunState(state *RunState) Option {
	return func(o *options) {
		o.state = state
	}
}

// New validates the project, creates the artifact directory tree (idempotent),
// and loads any persisted run state so re-runs skip completed stages.
func New(proj *project.Project, registry *stage.Registry, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "stage registry is required", nil)
	}
	if proj == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "project is required", nil)
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := EnsureTree(proj.Root()); err != nil {
		return nil, err
	}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	state := settings.state
	if state == nil {
		loaded, err := LoadState(proj.Root())
		if err != nil {
			return nil, err
		}
		state = loaded
	}

	return &Orchestrator{
		proj:     proj,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		state:    state,
	}, nil
}

// State exposes the orchestrator's run state for status reporting.
func (o *Orchestrator) State() *RunState {
	return o.state
}

// Run executes the requested stages in registry order. Stages already in the
// completed set are skipped without invoking their handler. The first stage
// failure aborts the run; the partial report is written before the error is
// returned. When no stages are given, all registered stages run.
func (o *Orchestrator) Run(ctx context.Context, stages ...stage.Stage) (map[stage.Stage][]string, error) {
	requested, err := normalizeStages(stages)
	if err != nil {
		return nil, err
	}

	root := o.proj.Root()
	lock := flock.New(filepath.Join(root, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "", "pipeline",
			fmt.Sprintf("project %q is already being produced by another process", o.proj.Name), nil)
	}
	defer func() { _ = lock.Unlock() }()

	runCtx := services.WithProject(ctx, o.proj.Name)
	runCtx = services.WithRequestID(runCtx, uuid.NewString())
	runLogger := logging.WithContext(runCtx, o.logger)

	start := time.Now()
	runLogger.Info("pipeline run started",
		logging.Int("stages_requested", len(requested)),
		logging.Int("scenes", len(o.proj.Scenes)),
	)

	results := make(map[stage.Stage][]string, len(requested))
	var runErr error

	for _, st := range requested {
		if o.state.IsCompleted(st) {
			runLogger.Info("skipping stage: already completed", logging.String(logging.FieldStage, string(st)))
			continue
		}

		handler, ok := o.registry.Handler(st)
		if !ok {
			runErr = services.Wrap(services.ErrConfiguration, string(st), "dispatch", "no handler registered", nil)
			break
		}

		stageCtx := services.WithStage(runCtx, string(st))
		stageLogger := logging.WithContext(stageCtx, o.logger)
		stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

		stageStart := time.Now()
		files, err := handler.Execute(stageCtx, o.proj)
		elapsed := time.Since(stageStart)

		if err != nil {
			wrapped := services.Wrap(services.ErrStageExecution, string(st), "", "", err)
			o.state.markFailed(st, StageResult{
				Status:   StatusError,
				Duration: elapsed.Seconds(),
				Error:    err.Error(),
			})
			stageLogger.Error("stage failed",
				logging.String(logging.FieldEventType, "stage_failure"),
				logging.Duration("stage_duration", elapsed),
				logging.Error(err),
			)
			runErr = wrapped
			break
		}

		o.state.markCompleted(st, StageResult{
			Status:   StatusSuccess,
			Duration: elapsed.Seconds(),
			Files:    files,
		})
		results[st] = files
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", elapsed),
			logging.Int("files", len(files)),
		)

		if err := o.state.save(root); err != nil {
			runErr = err
			break
		}
	}

	// The report covers partial progress even when a stage aborted the run.
	if err := o.state.save(root); err != nil && runErr == nil {
		runErr = err
	}
	report := Report{
		Project:       o.proj.Name,
		CompletedAt:   time.Now().UTC(),
		TotalDuration: time.Since(start).Seconds(),
		Scenes:        len(o.proj.Scenes),
		Stages:        o.state.Results(),
	}
	if err := WriteReport(root, report); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			runLogger.Error("failed to write production report", logging.Error(err))
		}
	}

	if runErr != nil {
		return results, runErr
	}

	runLogger.Info("pipeline run complete",
		logging.Duration("total_duration", time.Since(start)),
		logging.Int("stages_run", len(results)),
	)
	return results, nil
}

// normalizeStages validates the requested subset and returns it in registry
// order with duplicates removed. Stages always execute in registry order,
// regardless of the order the caller listed them.
func normalizeStages(stages []stage.Stage) ([]stage.Stage, error) {
	if len(stages) == 0 {
		return stage.All(), nil
	}
	set := make(map[stage.Stage]struct{}, len(stages))
	for _, st := range stages {
		if _, ok := stage.Index(st); !ok {
			return nil, services.Wrap(services.ErrValidation, string(st), "run", "unknown stage", nil)
		}
		set[st] = struct{}{}
	}
	return stage.Sort(set), nil
}
