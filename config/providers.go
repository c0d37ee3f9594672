package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"telecom-scraper/models"
)

// Provider registry validation errors.
var (
	ErrNoProviders          = errors.New("at least one provider is required")
	ErrProviderMissingName  = errors.New("provider name is required")
	ErrProviderUnknownKind  = errors.New("provider kind must be one of: fiber, tv, mobil")
	ErrProviderMissingInput = errors.New("provider needs a url or fallback plans")
	ErrDuplicateProvider    = errors.New("provider listed twice for the same kind")
)

// ProviderFile is the YAML provider registry.
type ProviderFile struct {
	Providers []ProviderSource `yaml:"providers"`
}

// ProviderSource describes one provider page and how to read it.
type ProviderSource struct {
	Name     string           `yaml:"name"`
	Kind     string           `yaml:"kind"`
	URL      string           `yaml:"url"`
	Enabled  *bool            `yaml:"enabled"`
	Key      bool             `yaml:"key"`
	Selector string           `yaml:"selector"`
	Fallback []map[string]any `yaml:"fallback"`
}

// IsEnabled defaults to true when the field is omitted.
func (p *ProviderSource) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// LoadProviders reads and validates the registry at path.
func LoadProviders(path string) (*ProviderFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}
	return ParseProviders(data)
}

// ParseProviders decodes and validates a registry document.
func ParseProviders(data []byte) (*ProviderFile, error) {
	var pf ProviderFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := pf.Validate(); err != nil {
		return nil, fmt.Errorf("providers validation failed: %w", err)
	}
	return &pf, nil
}

// Validate checks every entry of the registry.
func (f *ProviderFile) Validate() error {
	if len(f.Providers) == 0 {
		return ErrNoProviders
	}

	seen := make(map[string]bool)
	for i, p := range f.Providers {
		if p.Name == "" {
			return fmt.Errorf("%w: providers[%d]", ErrProviderMissingName, i)
		}
		kind, ok := models.ParseKind(p.Kind)
		if !ok {
			return fmt.Errorf("%w: providers[%d] %s", ErrProviderUnknownKind, i, p.Name)
		}
		if p.URL == "" && len(p.Fallback) == 0 {
			return fmt.Errorf("%w: providers[%d] %s", ErrProviderMissingInput, i, p.Name)
		}
		id := string(kind) + "/" + p.Name
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, id)
		}
		seen[id] = true
	}
	return nil
}

// ForKind returns the entries for kind in file order.
func (f *ProviderFile) ForKind(kind models.Kind) []ProviderSource {
	var out []ProviderSource
	for _, p := range f.Providers {
		if k, ok := models.ParseKind(p.Kind); ok && k == kind {
			out = append(out, p)
		}
	}
	return out
}
