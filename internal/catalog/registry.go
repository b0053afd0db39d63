package catalog

import "sync"

// Registry shares one value per normalized database URI, so repeated
// connects within a process see the same tables.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Get returns the value registered for uri, calling open to create it on
// first use. A failed open registers nothing. open runs under the registry
// lock, so concurrent first connects to one uri open it once.
func (r *Registry[T]) Get(uri string, open func() (T, error)) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.entries[uri]; ok {
		return v, nil
	}
	v, err := open()
	if err != nil {
		var zero T
		return zero, err
	}
	r.entries[uri] = v
	return v, nil
}

// Remove forgets the value of uri.
func (r *Registry[T]) Remove(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, uri)
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
