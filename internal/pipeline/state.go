package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"reelforge/internal/stage"
)

// Stage result statuses recorded in run state and reports.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StageResult records the outcome of one stage execution.
type StageResult struct {
	Status   string   `json:"status"`
	Duration float64  `json:"duration"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// StateFileName is the persisted run-state document under the project's logs
// directory. It is the resume source of truth across orchestrator instances.
const StateFileName = "pipeline_state.json"

// RunState is the orchestrator's only mutable memory: the monotone set of
// completed stages and the per-stage result records. Tests may construct a
// pre-seeded state to exercise resume behavior without running prior stages.
type RunState struct {
	completed map[stage.Stage]struct{}
	results   map[stage.Stage]StageResult
}

// NewRunState returns an empty run state.
func NewRunState() *RunState {
	return &RunState{
		completed: make(map[stage.Stage]struct{}),
		results:   make(map[stage.Stage]StageResult),
	}
}

// SeedCompleted marks a stage as already complete with an existing result.
// Used by tests and by callers reconstructing state from elsewhere.
func (s *RunState) SeedCompleted(st stage.Stage, result StageResult) {
	s.completed[st] = struct{}{}
	s.results[st] = result
}

// IsCompleted reports whether a stage is in the completed set.
func (s *RunState) IsCompleted(st stage.Stage) bool {
	_, ok := s.completed[st]
	return ok
}

// Completed returns the completed set in registry order.
func (s *RunState) Completed() []stage.Stage {
	return stage.Sort(s.completed)
}

// Result returns the recorded result for a stage, if any.
func (s *RunState) Result(st stage.Stage) (StageResult, bool) {
	r, ok := s.results[st]
	return r, ok
}

// Results returns a copy of the per-stage result map keyed by stage name.
func (s *RunState) Results() map[string]StageResult {
	out := make(map[string]StageResult, len(s.results))
	for st, r := range s.results {
		out[string(st)] = r
	}
	return out
}

func (s *RunState) markCompleted(st stage.Stage, result StageResult) {
	s.completed[st] = struct{}{}
	s.results[st] = result
}

// markFailed records an error result without touching the completed set.
func (s *RunState) markFailed(st stage.Stage, result StageResult) {
	s.results[st] = result
}

type stateDocument struct {
	Completed []stage.Stage               `json:"completed"`
	Results   map[stage.Stage]StageResult `json:"results"`
}

// LoadState reads persisted run state from a project root. A missing state
// file yields a fresh state.
func LoadState(root string) (*RunState, error) {
	data, err := os.ReadFile(statePath(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewRunState(), nil
		}
		return nil, fmt.Errorf("read pipeline state: %w", err)
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pipeline state: %w", err)
	}

	state := NewRunState()
	for st, result := range doc.Results {
		if _, ok := stage.Index(st); !ok {
			return nil, fmt.Errorf("pipeline state names unknown stage %q", st)
		}
		state.results[st] = result
	}
	for _, st := range doc.Completed {
		if _, ok := stage.Index(st); !ok {
			return nil, fmt.Errorf("pipeline state names unknown stage %q", st)
		}
		state.completed[st] = struct{}{}
	}
	return state, nil
}

func (s *RunState) save(root string) error {
	doc := stateDocument{
		Completed: s.Completed(),
		Results:   make(map[stage.Stage]StageResult, len(s.results)),
	}
	for st, r := range s.results {
		doc.Results[st] = r
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pipeline state: %w", err)
	}
	if err := os.WriteFile(statePath(root), data, 0o644); err != nil {
		return fmt.Errorf("write pipeline state: %w", err)
	}
	return nil
}

func statePath(root string) string {
	return filepath.Join(root, DirLogs, StateFileName)
}
