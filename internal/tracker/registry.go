package tracker

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownTracker is returned by NewTracker for a name nothing registered.
var ErrUnknownTracker = errors.New("unknown tracker")

// Factory builds an uninitialized IssueTracker.
type Factory func() IssueTracker

// Registry maps tracker plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

var defaultRegistry = NewRegistry()

// Register adds a plugin to the default registry. Plugins call it from init.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Names lists the plugins in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// NewTracker builds the named plugin from the default registry.
func NewTracker(name string) (IssueTracker, error) {
	return defaultRegistry.NewTracker(name)
}

// Register adds factory under name. It panics on an empty name, a nil
// factory, or a name that is already taken.
func (r *Registry) Register(name string, factory Factory) {
	name = normalizeName(name)
	if name == "" {
		panic("tracker: Register with empty name")
	}
	if factory == nil {
		panic("tracker: Register factory is nil for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic("tracker: Register called twice for " + name)
	}
	r.factories[name] = factory
}

// Names returns the registered plugin names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// NewTracker returns a fresh, uninitialized instance of the named plugin.
// Lookup ignores case and surrounding space.
func (r *Registry) NewTracker(name string) (IssueTracker, error) {
	key := normalizeName(name)
	r.mu.RLock()
	factory := r.factories[key]
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownTracker, name, strings.Join(r.Names(), ", "))
	}
	return factory(), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
