package provider

import (
	"fmt"
	"slices"
	"sync"
)

// Factory creates a new Client from a validated profile.
// Each implementation registers its own factory function.
type Factory func(p Profile) (Client, error)

// registry stores registered provider factories.
var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]Factory)
)

// Register adds a factory for kind to the registry.
// Implementations should call this in their init() function.
// Panics if the kind is already registered.
//
// Example:
//
//	func init() {
//	    provider.Register(provider.KindAzure, func(p provider.Profile) (provider.Client, error) {
//	        return NewAzure(*p.Azure)
//	    })
//	}
func Register(kind Kind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("provider %q already registered", kind))
	}
	registry[kind] = factory
}

// New validates p and creates a Client for its kind.
// Returns ErrUnknownProvider if the kind is not registered and
// ErrIncompleteConfig if required fields are missing.
func New(p Profile) (Client, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	registryMu.RLock()
	factory, ok := registry[p.Kind]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p.Kind)
	}
	return factory(p)
}

// MustNew creates a new Client, panicking on error.
// Use only when provider availability is guaranteed (e.g., in tests).
func MustNew(p Profile) Client {
	client, err := New(p)
	if err != nil {
		panic(fmt.Sprintf("provider.MustNew(%q): %v", p.Name, err))
	}
	return client
}

// Available returns the registered kinds, sorted.
func Available() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	kinds := make([]Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// IsRegistered checks if a kind is registered.
func IsRegistered(kind Kind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	_, ok := registry[kind]
	return ok
}

// Unregister removes a kind from the registry.
// This is primarily useful for testing.
func Unregister(kind Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(registry, kind)
}

// ClearRegistry removes all registered providers.
// This is primarily useful for testing.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry = make(map[Kind]Factory)
}
