package scraper

import (
	"context"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/utils"
)

// Producer yields the raw candidates of one provider. Whether they come from
// a live page or from fallback data is the producer's own business.
type Producer func(ctx context.Context) ([]models.RawCandidate, error)

// Descriptor is one row of the provider table a run iterates.
type Descriptor struct {
	Name     string
	Kind     models.Kind
	Enabled  bool
	Key      bool
	Producer Producer
}

// keyProviders are always part of a light run, whatever the registry says.
var keyProviders = map[models.Kind][]string{
	models.KindTV:     {"YouSee", "Waoo", "Stofa", "Boxer", "Norlys"},
	models.KindMobile: {"Telia", "Telenor", "YouSee", "Oister", "Lebara"},
}

// IsKeyProvider reports whether name is on the built-in light-mode list.
func IsKeyProvider(kind models.Kind, name string) bool {
	for _, n := range keyProviders[kind] {
		if n == name {
			return true
		}
	}
	return false
}

// BuildRegistry turns registry entries into descriptors backed by page
// producers.
func BuildRegistry(kind models.Kind, sources []config.ProviderSource, renderer Renderer,
	retry *utils.RetryConfig, logger *utils.Logger) []Descriptor {

	out := make([]Descriptor, 0, len(sources))
	for _, src := range sources {
		out = append(out, Descriptor{
			Name:     src.Name,
			Kind:     kind,
			Enabled:  src.IsEnabled(),
			Key:      src.Key || IsKeyProvider(kind, src.Name),
			Producer: PageProducer(kind, src, renderer, retry, logger),
		})
	}
	return out
}
