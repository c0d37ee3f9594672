package scraper

import (
	"context"
	"errors"
	"fmt"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/utils"
)

var (
	// ErrNoURL is returned for a provider configured without a page.
	ErrNoURL = errors.New("provider has no url")
	// ErrNoCandidates is returned when a rendered page held no offer cards.
	ErrNoCandidates = errors.New("no offer cards found on page")
)

// PageProducer renders the provider page and extracts its offer cards. When
// the page cannot be read the provider's fallback plans are returned instead,
// and only a provider without fallback plans reports an error. A cancelled run
// never falls back.
func PageProducer(kind models.Kind, src config.ProviderSource, renderer Renderer,
	retry *utils.RetryConfig, logger *utils.Logger) Producer {

	return func(ctx context.Context) ([]models.RawCandidate, error) {
		cands, err := scrapePage(ctx, kind, src, renderer, retry)
		if err == nil {
			logger.Debug("[%s] %s: %d cards extracted", kind, src.Name, len(cands))
			return cands, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, ctxErr)
		}
		if len(src.Fallback) == 0 {
			return nil, err
		}
		logger.Warn("[%s] %s: %v, using %d fallback plans", kind, src.Name, err, len(src.Fallback))
		return fallbackCandidates(src.Fallback), nil
	}
}

func scrapePage(ctx context.Context, kind models.Kind, src config.ProviderSource,
	renderer Renderer, retry *utils.RetryConfig) ([]models.RawCandidate, error) {

	if src.URL == "" {
		return nil, ErrNoURL
	}
	if renderer == nil {
		return nil, fmt.Errorf("%s: no renderer configured", src.Name)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}

	var html string
	err := retry.Do(ctx, "render "+src.Name, func() error {
		var rerr error
		html, rerr = renderer.Render(ctx, src.URL)
		return rerr
	})
	if err != nil {
		return nil, err
	}

	cands, err := ExtractCandidates(kind, src.URL, html, src.Selector)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%s: %w", src.URL, ErrNoCandidates)
	}
	return cands, nil
}

// fallbackCandidates copies the configured plans so callers may not mutate
// the registry.
func fallbackCandidates(plans []map[string]any) []models.RawCandidate {
	out := make([]models.RawCandidate, 0, len(plans))
	for _, p := range plans {
		c := make(models.RawCandidate, len(p))
		for k, v := range p {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}
