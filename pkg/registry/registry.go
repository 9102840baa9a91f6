package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// Registry manages the actions declared by one resolution pass.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]domain.ActionDescriptor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]domain.ActionDescriptor),
	}
}

// Register adds an action to the registry under its name.
// If an action with the same name exists, it is overwritten and Register reports true.
func (r *Registry) Register(action domain.ActionDescriptor) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.actions[action.Name]
	r.actions[action.Name] = action
	return replaced
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (domain.ActionDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns the registered actions sorted by name.
func (r *Registry) Descriptors() []domain.ActionDescriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ActionDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.actions[name])
	}
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Execute looks up an action by name, validates the arguments against its
// parameter schema and runs its executor inside an action context.
// Returns domain.ErrActionNotFound if the action is not registered.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (domain.ActionResult, error) {
	action, ok := r.Get(name)
	if !ok {
		return domain.ActionResult{}, fmt.Errorf("%w: %s", domain.ErrActionNotFound, name)
	}

	if err := schema.Validate(action.Parameters, args); err != nil {
		var aggr *schema.AggregateError
		if errors.As(err, &aggr) {
			aggr.Action = name
		}
		return domain.ActionResult{}, fmt.Errorf("action %s: invalid arguments: %w", name, err)
	}

	result := domain.ActionResult{
		Action: name,
		State:  domain.ActionState{Outcome: domain.OutcomeContinue},
	}
	if action.Execute == nil {
		return result, nil
	}

	actx := &actionContext{state: result.State}
	value, err := action.Execute(context.WithValue(ctx, actionContextKey{}, actx), args)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("action %s: %w", name, err)
	}

	actx.mu.Lock()
	result.State = actx.state
	actx.mu.Unlock()
	result.Value = value
	return result, nil
}
