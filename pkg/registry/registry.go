package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Registry tracks live values by name. Hosts use it to find the session a request targets.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewRegistry creates a new empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register adds a value to the registry.
// If a value with the same name exists, it is overwritten.
func (r *Registry[T]) Register(name string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = v
}

// Lookup returns the value registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[name]
	return v, ok
}

// MustLookup is Lookup returning an error for unknown names.
func (r *Registry[T]) MustLookup(name string) (T, error) {
	v, ok := r.Lookup(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("not registered: %s", name)
	}
	return v, nil
}

// Unregister removes name. Unknown names are ignored.
func (r *Registry[T]) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
}

// Names returns the registered names, sorted.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
