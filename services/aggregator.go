package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/scraper"
	"telecom-scraper/utils"
)

var (
	// ErrProducerFailed wraps anything a producer returned or panicked with.
	ErrProducerFailed = errors.New("producer failed")
	// ErrNoProducer is returned for a descriptor without a producer.
	ErrNoProducer = errors.New("descriptor has no producer")
)

// Aggregation is the outcome of one pass over a provider table.
type Aggregation struct {
	Candidates []models.TaggedCandidate
	Stats      []models.ProviderStat
	Succeeded  int
	Failed     int
}

// Aggregator runs provider producers one after another and isolates their
// failures from each other.
type Aggregator struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger, now: time.Now}
}

// Collect invokes every enabled provider in order. In light mode only key
// providers run. A failing or empty provider is counted and skipped. Once ctx
// is done the remaining providers are skipped as interrupted.
func (a *Aggregator) Collect(ctx context.Context, kind models.Kind, providers []scraper.Descriptor, mode string) *Aggregation {
	agg := &Aggregation{}
	a.logger.Info("[%s] Starting scrape (type: %s, providers: %d)", kind, mode, len(providers))

	for _, d := range providers {
		stat := models.ProviderStat{Name: d.Name}

		switch {
		case ctx.Err() != nil:
			a.logger.Warn("[%s] Interrupted, skipping %s", kind, d.Name)
			stat.Skipped = "interrupted"
			agg.Stats = append(agg.Stats, stat)
			continue
		case !d.Enabled:
			a.logger.Info("[%s] Skipping disabled provider: %s", kind, d.Name)
			stat.Skipped = "disabled"
			agg.Stats = append(agg.Stats, stat)
			continue
		case mode == config.ModeLight && !d.Key:
			a.logger.Debug("[%s] Skipping %s in light mode", kind, d.Name)
			stat.Skipped = "light mode"
			agg.Stats = append(agg.Stats, stat)
			continue
		}

		a.logger.Info("[%s] Scraping %s...", kind, d.Name)
		raws, err := invoke(ctx, d)

		switch {
		case err != nil:
			a.logger.Error("[%s] %s: %v", kind, d.Name, err)
			stat.Failures++
			stat.Err = err.Error()
			agg.Failed++
		case len(raws) == 0:
			a.logger.Warn("[%s] %s: no records found", kind, d.Name)
			stat.Failures++
			stat.Err = "no records"
			agg.Failed++
		default:
			scrapedAt := a.now()
			for _, raw := range raws {
				if raw == nil {
					continue
				}
				agg.Candidates = append(agg.Candidates, models.TaggedCandidate{
					Provider:  d.Name,
					ScrapedAt: scrapedAt,
					Raw:       raw,
				})
				stat.Records++
			}
			agg.Succeeded++
			a.logger.Info("[%s] %s: %d candidates", kind, d.Name, stat.Records)
		}
		agg.Stats = append(agg.Stats, stat)
	}

	a.logger.Info("[%s] Scraping completed: %d successful, %d failed, %d candidates",
		kind, agg.Succeeded, agg.Failed, len(agg.Candidates))
	return agg
}

// invoke calls the producer and turns a panic into an error.
func invoke(ctx context.Context, d scraper.Descriptor) (raws []models.RawCandidate, err error) {
	if d.Producer == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProducer, d.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			raws = nil
			err = fmt.Errorf("%w: panic: %v", ErrProducerFailed, r)
		}
	}()

	raws, err = d.Producer(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProducerFailed, err)
	}
	return raws, nil
}
