package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/snapback/pkg/errors"
)

// Registry maps keys to items. Keys are compared exactly.
type Registry[K ~string, T any] interface {
	// Register adds an item under key
	Register(key K, item T) error

	// Replace adds or overwrites the item under key
	Replace(key K, item T)

	// Get retrieves the item for key
	Get(key K) (T, error)

	// Keys returns all registered keys in sorted order
	Keys() []K
}

type registry[K ~string, T any] struct {
	mu    sync.RWMutex
	items map[K]T
}

// New creates an empty Registry
func New[K ~string, T any]() Registry[K, T] {
	return &registry[K, T]{
		items: make(map[K]T),
	}
}

func (r *registry[K, T]) Register(key K, item T) error {
	if key == "" {
		return errors.New(errors.ErrInvalidInput, "registry key cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "'%s' is already registered", key)
	}

	r.items[key] = item
	return nil
}

func (r *registry[K, T]) Replace(key K, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = item
}

func (r *registry[K, T]) Get(key K) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[key]
	if !exists {
		var zero T
		return zero, errors.Newf(errors.ErrNotFound, "nothing registered for '%s'", key)
	}
	return item, nil
}

func (r *registry[K, T]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MustRegister registers an item and panics if registration fails.
// Registration errors while wiring are programming errors.
func MustRegister[K ~string, T any](reg Registry[K, T], key K, item T) {
	if err := reg.Register(key, item); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", key, err))
	}
}
