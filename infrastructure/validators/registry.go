package validators

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-arena/internal/ports"
)

// Factory creates a validator instance from a free-form parameter map.
type Factory func(name string, params map[string]any) (ports.AnswerSetValidator, error)

// Registry resolves validator kinds from task-type configuration to
// concrete validator instances. The judgement service passed at
// construction is injected into deferring validators, mirroring how the
// filter registry stays dependency-free.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	judgement ports.JudgementService
}

// NewRegistry creates a Registry with the standard validator kinds
// pre-registered. judgement may be nil if no task type defers; creating a
// "judged" validator without one fails.
func NewRegistry(judgement ports.JudgementService) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		judgement: judgement,
	}

	r.factories["item_match"] = NewItemMatchFromConfig
	r.factories["temporal_containment"] = NewTemporalContainmentFromConfig
	r.factories["temporal_overlap"] = NewTemporalOverlapFromConfig
	r.factories["text_match"] = NewTextMatchFromConfig

	// Capture the service so late mutation of the registry cannot race.
	service := r.judgement
	r.factories["judged"] = func(name string, _ map[string]any) (ports.AnswerSetValidator, error) {
		return NewJudgedValidator(name, service)
	}

	return r
}

// Create instantiates a validator of the given kind.
func (r *Registry) Create(kind string, params map[string]any) (ports.AnswerSetValidator, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported validator kind: %s", kind)
	}
	v, err := factory(kind, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create validator %s: %w", kind, err)
	}
	return v, nil
}

// Register adds a custom validator factory under the given kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("validator kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}
