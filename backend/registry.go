package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gfx"
)

// Factory creates a new, uninitialized renderer. gfx.New initializes it.
type Factory func() (gfx.Renderer, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// The GPU renderer is preferred; noop keeps headless tools running.
	backendPriority = []string{NameWGPU, NameNoop}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a renderer of the named backend.
func Get(name string) (gfx.Renderer, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("backend %q: %w", name, gfx.ErrUnknownBackend)
	}
	r, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}
	return r, nil
}

// Default returns a renderer of the best available backend based on
// priority, falling back to any other registered backend in name order.
// Returns nil if no backend could create a renderer.
func Default() gfx.Renderer {
	for _, name := range order() {
		r, err := Get(name)
		if err != nil {
			gfx.Logger().Debug("backend: skipped", "backend", name, "err", err)
			continue
		}
		return r
	}
	return nil
}

// order lists the registered backends, prioritized ones first.
func order() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// MustDefault returns the default renderer or panics.
func MustDefault() gfx.Renderer {
	r := Default()
	if r == nil {
		panic("backend: no backend available")
	}
	return r
}

// InitDefault creates a context driving the default renderer.
func InitDefault(opts ...gfx.Option) (*gfx.Context, error) {
	r := Default()
	if r == nil {
		return nil, ErrBackendNotAvailable
	}
	return gfx.New(r, opts...)
}

// Open creates a context driving the named backend. An empty name selects
// the default backend.
func Open(name string, opts ...gfx.Option) (*gfx.Context, error) {
	if name == "" {
		return InitDefault(opts...)
	}
	r, err := Get(name)
	if err != nil {
		return nil, err
	}
	return gfx.New(r, opts...)
}
