package filters

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-arena/internal/ports"
)

// Factory creates a filter instance from a free-form parameter map.
type Factory func(name string, params map[string]any) (ports.SubmissionFilter, error)

// Registry resolves filter kinds from task-type configuration to concrete
// filter instances. It is safe for concurrent use and supports dynamic
// registration of custom filter kinds.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry with the standard filter kinds
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories["duplicate"] = NewDuplicateFromConfig
	r.factories["attempt_limit"] = NewAttemptLimitFromConfig
	r.factories["min_gap"] = NewMinGapFromConfig
	r.factories["require_range"] = NewRequireRangeFromConfig
	r.factories["rate_limit"] = NewRateLimitFromConfig
	return r
}

// Create instantiates a filter of the given kind.
func (r *Registry) Create(kind string, params map[string]any) (ports.SubmissionFilter, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported filter kind: %s", kind)
	}
	f, err := factory(kind, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter %s: %w", kind, err)
	}
	return f, nil
}

// Register adds a custom filter factory under the given kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("filter kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}
