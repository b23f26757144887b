package stage

import (
	"context"
	"fmt"

	"reelforge/internal/project"
)

// Handler performs one stage's actual work against a project. Implementations
// return the artifact paths they produced, and are expected to be idempotent
// with respect to artifacts already present on disk.
type Handler interface {
	Execute(ctx context.Context, proj *project.Project) ([]string, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, proj *project.Project) ([]string, error)

func (f HandlerFunc) Execute(ctx context.Context, proj *project.Project) ([]string, error) {
	return f(ctx, proj)
}

// Registry maps every stage to its handler. The mapping is fixed at
// construction and must be total over the stage set.
type Registry struct {
	handlers map[Stage]Handler
}

// NewRegistry builds a registry from a handler table, rejecting tables that
// leave any stage without a handler or name an unknown stage.
func NewRegistry(handlers map[Stage]Handler) (*Registry, error) {
	for s := range handlers {
		if _, ok := stageIndex[s]; !ok {
			return nil, fmt.Errorf("unknown stage %q in handler table", s)
		}
	}
	table := make(map[Stage]Handler, len(registryOrder))
	for _, s := range registryOrder {
		handler, ok := handlers[s]
		if !ok || handler == nil {
			return nil, fmt.Errorf("no handler registered for stage %q", s)
		}
		table[s] = handler
	}
	return &Registry{handlers: table}, nil
}

// Handler returns the handler for a stage.
func (r *Registry) Handler(s Stage) (Handler, bool) {
	h, ok := r.handlers[s]
	return h, ok
}
