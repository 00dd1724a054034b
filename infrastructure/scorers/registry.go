package scorers

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-arena/internal/ports"
)

// Factory creates a scorer instance from a free-form parameter map.
// Each task run gets its own scorer instance; scorers are stateful.
type Factory func(name string, params map[string]any) (ports.Scorer, error)

// Registry resolves scoring kinds from task-type configuration to
// concrete scorer instances.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry with the standard scoring kinds
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories["kis"] = NewKISFromConfig
	r.factories["avs"] = NewAVSFromConfig
	return r
}

// Create instantiates a fresh scorer of the given kind.
func (r *Registry) Create(kind string, params map[string]any) (ports.Scorer, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported scoring kind: %s", kind)
	}
	s, err := factory(kind, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer %s: %w", kind, err)
	}
	return s, nil
}

// Register adds a custom scorer factory under the given kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("scoring kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}
