package providers

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrModelNotSupported is returned when a model is not supported by any provider
	ErrModelNotSupported = errors.New("model not supported")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry manages provider instances and model mappings
type Registry struct {
	mu             sync.RWMutex
	providers      map[string]Provider
	modelProviders map[string]string // model -> provider name
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers:      make(map[string]Provider),
		modelProviders: make(map[string]string),
	}
}

// RegisterProvider registers a provider instance and all of its models
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if _, exists := r.providers[name]; exists {
		return ErrProviderAlreadyRegistered
	}

	r.providers[name] = provider
	for _, model := range provider.ListModels() {
		r.modelProviders[model] = name
	}
	return nil
}

// GetProvider retrieves a provider by name
func (r *Registry) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, ErrProviderNotFound
	}
	return provider, nil
}

// GetProviderForModel finds the provider that supports a given model.
// Models not listed up front are offered to each provider's ValidateModel,
// in name order so the choice is stable.
func (r *Registry) GetProviderForModel(model string) (Provider, error) {
	r.mu.RLock()
	if name, exists := r.modelProviders[model]; exists {
		if provider, ok := r.providers[name]; ok {
			r.mu.RUnlock()
			return provider, nil
		}
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		provider, err := r.GetProvider(name)
		if err != nil {
			continue
		}
		if provider.ValidateModel(model) == nil {
			r.mu.Lock()
			r.modelProviders[model] = name
			r.mu.Unlock()
			return provider, nil
		}
	}
	return nil, ErrModelNotSupported
}

// ListProviders returns all registered provider names, sorted
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
