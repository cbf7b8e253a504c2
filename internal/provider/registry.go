package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Fetcher is what every registered provider implements.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, handle string) (Attributes, error)
}

// Factory builds a provider from the shared settings.
type Factory func(Settings) (Fetcher, error)

// Registry maps provider names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Names are case-insensitive and may be
// registered once.
func (r *Registry) Register(name string, f Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return errors.New("provider: register: empty name")
	}
	if f == nil {
		return fmt.Errorf("provider: register %q: nil factory", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[key]; dup {
		return fmt.Errorf("provider: register %q: already registered", key)
	}
	r.factories[key] = f
	return nil
}

// New builds the provider registered as name.
func (r *Registry) New(name string, s Settings) (Fetcher, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderError{Name: name, Available: r.Names()}
	}

	p, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("provider: build %q: %w", key, err)
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownProviderError indicates a provider name is not registered.
type UnknownProviderError struct {
	Name      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("provider: unknown provider %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
