package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/scraper"
)

func staticProducer(raws ...models.RawCandidate) scraper.Producer {
	return func(context.Context) ([]models.RawCandidate, error) {
		return raws, nil
	}
}

func descriptor(name string, p scraper.Producer) scraper.Descriptor {
	return scraper.Descriptor{Name: name, Kind: models.KindFiber, Enabled: true, Producer: p}
}

func newTestAggregator() *Aggregator {
	a := NewAggregator(newTestLogger())
	a.now = func() time.Time { return scrapedAt }
	return a
}

func TestAggregatorIsolatesFailures(t *testing.T) {
	providers := []scraper.Descriptor{
		descriptor("Hiper", staticProducer(models.RawCandidate{"pris_mdr": 299})),
		descriptor("Broken", func(context.Context) ([]models.RawCandidate, error) {
			return nil, errors.New("connection reset")
		}),
		descriptor("Panicky", func(context.Context) ([]models.RawCandidate, error) {
			panic("selector exploded")
		}),
		descriptor("Empty", staticProducer()),
		descriptor("Waoo", staticProducer(
			models.RawCandidate{"pris_mdr": 349},
			models.RawCandidate{"pris_mdr": 449},
		)),
	}

	agg := newTestAggregator().Collect(context.Background(), models.KindFiber, providers, config.ModeFull)

	if agg.Succeeded != 2 || agg.Failed != 3 {
		t.Fatalf("succeeded/failed = %d/%d; want 2/3", agg.Succeeded, agg.Failed)
	}
	if len(agg.Candidates) != 3 {
		t.Fatalf("candidates = %d; want 3", len(agg.Candidates))
	}
	if len(agg.Stats) != len(providers) {
		t.Fatalf("stats = %d; want %d", len(agg.Stats), len(providers))
	}
	if agg.Stats[2].Failures != 1 || agg.Stats[2].Err == "" {
		t.Errorf("panic not recorded: %+v", agg.Stats[2])
	}
	if agg.Stats[4].Records != 2 {
		t.Errorf("Waoo records = %d; want 2", agg.Stats[4].Records)
	}
}

func TestAggregatorTagsCandidates(t *testing.T) {
	raw := models.RawCandidate{"udbyder": "Self Reported", "pris_mdr": 299}
	agg := newTestAggregator().Collect(context.Background(), models.KindFiber,
		[]scraper.Descriptor{descriptor("Hiper", staticProducer(raw))}, config.ModeFull)

	if len(agg.Candidates) != 1 {
		t.Fatalf("candidates = %d; want 1", len(agg.Candidates))
	}
	c := agg.Candidates[0]
	if c.Provider != "Hiper" {
		t.Errorf("provider = %q; want Hiper", c.Provider)
	}
	if !c.ScrapedAt.Equal(scrapedAt) {
		t.Errorf("scraped_at = %v; want %v", c.ScrapedAt, scrapedAt)
	}
	if raw["udbyder"] != "Self Reported" {
		t.Error("raw candidate was mutated")
	}
}

func TestAggregatorSkipsDisabledAndLightMode(t *testing.T) {
	calls := make(map[string]int)
	counting := func(name string) scraper.Producer {
		return func(context.Context) ([]models.RawCandidate, error) {
			calls[name]++
			return []models.RawCandidate{{"pris_mdr": 100}}, nil
		}
	}

	providers := []scraper.Descriptor{
		{Name: "YouSee", Enabled: true, Key: true, Producer: counting("YouSee")},
		{Name: "Kviknet", Enabled: true, Producer: counting("Kviknet")},
		{Name: "Altibox", Enabled: false, Key: true, Producer: counting("Altibox")},
	}

	a := newTestAggregator()
	light := a.Collect(context.Background(), models.KindTV, providers, config.ModeLight)
	if calls["YouSee"] != 1 || calls["Kviknet"] != 0 || calls["Altibox"] != 0 {
		t.Fatalf("light mode calls = %v", calls)
	}
	if light.Succeeded != 1 || light.Failed != 0 {
		t.Errorf("light succeeded/failed = %d/%d", light.Succeeded, light.Failed)
	}
	if light.Stats[1].Skipped == "" || light.Stats[2].Skipped == "" {
		t.Errorf("skips not recorded: %+v", light.Stats)
	}

	full := a.Collect(context.Background(), models.KindTV, providers, config.ModeFull)
	if calls["Kviknet"] != 1 || calls["Altibox"] != 0 {
		t.Fatalf("full mode calls = %v", calls)
	}
	if full.Succeeded != 2 {
		t.Errorf("full succeeded = %d; want 2", full.Succeeded)
	}
}

func TestAggregatorMissingProducer(t *testing.T) {
	agg := newTestAggregator().Collect(context.Background(), models.KindFiber,
		[]scraper.Descriptor{{Name: "Ghost", Enabled: true}}, config.ModeFull)
	if agg.Failed != 1 {
		t.Errorf("Failed = %d; want 1", agg.Failed)
	}
}

func TestAggregatorStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	providers := []scraper.Descriptor{
		descriptor("Hiper", func(context.Context) ([]models.RawCandidate, error) {
			calls++
			cancel()
			return []models.RawCandidate{{"pris_mdr": 299}}, nil
		}),
		descriptor("Waoo", func(context.Context) ([]models.RawCandidate, error) {
			calls++
			return []models.RawCandidate{{"pris_mdr": 349}}, nil
		}),
	}

	agg := newTestAggregator().Collect(ctx, models.KindFiber, providers, config.ModeFull)
	if calls != 1 {
		t.Fatalf("producer calls = %d; want 1", calls)
	}
	if agg.Stats[1].Skipped != "interrupted" {
		t.Errorf("Waoo stat = %+v; want skipped as interrupted", agg.Stats[1])
	}
}
