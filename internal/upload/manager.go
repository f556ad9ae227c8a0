package upload

import (
	"fmt"
	"slices"
)

// ProviderFactory is a function that creates a new provider instance
type ProviderFactory func() Provider

// Registry holds all available upload providers
var Registry = make(map[string]ProviderFactory)

// RegisterProvider registers a new upload provider
func RegisterProvider(name string, factory ProviderFactory) {
	Registry[name] = factory
}

// NewProvider creates a new provider instance by name
func NewProvider(name string) (Provider, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %s (available: %v)", name, ProviderNames())
	}
	return factory(), nil
}

// ProviderNames lists registered providers in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Setup creates and configures a provider in one step.
func Setup(name string, config map[string]any) (Provider, error) {
	p, err := NewProvider(name)
	if err != nil {
		return nil, err
	}
	if err := p.Configure(config); err != nil {
		return nil, err
	}
	return p, nil
}

// init registers all built-in providers
func init() {
	RegisterProvider("minio", func() Provider {
		return NewMinioProvider()
	})
}
