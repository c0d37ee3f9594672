package scraper

import (
	"context"
	"errors"
	"testing"

	"telecom-scraper/config"
	"telecom-scraper/models"
	"telecom-scraper/utils"
)

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (s *stubRenderer) Render(context.Context, string) (string, error) {
	s.calls++
	return s.html, s.err
}

func TestPageProducerRendersAndExtracts(t *testing.T) {
	r := &stubRenderer{html: fiberPage}
	src := config.ProviderSource{Name: "Hiper", Kind: "fiber", URL: "https://www.hiper.dk/internet"}

	cands, err := PageProducer(models.KindFiber, src, r, nil, utils.Discard())(context.Background())
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	if len(cands) != 2 || r.calls != 1 {
		t.Errorf("candidates/calls = %d/%d; want 2/1", len(cands), r.calls)
	}
}

func TestPageProducerRetriesThenFallsBack(t *testing.T) {
	r := &stubRenderer{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	fallback := []map[string]any{{"pakke_navn": "Bland Selv 10", "kanaler": 40, "pris_mdr": 399}}
	src := config.ProviderSource{Name: "YouSee", Kind: "tv", URL: "https://www.yousee.dk/tv", Fallback: fallback}
	retry := &utils.RetryConfig{MaxAttempts: 3}

	cands, err := PageProducer(models.KindTV, src, r, retry, utils.Discard())(context.Background())
	if err != nil {
		t.Fatalf("producer: %v", err)
	}
	if r.calls != 3 {
		t.Errorf("render calls = %d; want 3", r.calls)
	}
	if len(cands) != 1 || cands[0]["pris_mdr"] != 399 {
		t.Fatalf("fallback candidates = %v", cands)
	}

	cands[0]["pris_mdr"] = 1
	if fallback[0]["pris_mdr"] != 399 {
		t.Error("fallback plans were mutated through the returned candidates")
	}
}

func TestPageProducerNoCardsWithoutFallback(t *testing.T) {
	r := &stubRenderer{html: "<html><body>Siden findes ikke</body></html>"}
	src := config.ProviderSource{Name: "Kviknet", Kind: "fiber", URL: "https://www.kviknet.dk"}

	_, err := PageProducer(models.KindFiber, src, r, nil, utils.Discard())(context.Background())
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("producer = %v; want ErrNoCandidates", err)
	}
}

func TestPageProducerFallbackOnly(t *testing.T) {
	src := config.ProviderSource{
		Name:     "Greentel",
		Kind:     "mobil",
		Fallback: []map[string]any{{"data_GB": 30, "pris_mdr": 99}},
	}
	cands, err := PageProducer(models.KindMobile, src, nil, nil, utils.Discard())(context.Background())
	if err != nil || len(cands) != 1 {
		t.Fatalf("producer = %v, %d candidates", err, len(cands))
	}
}

func TestBuildRegistry(t *testing.T) {
	disabled := false
	sources := []config.ProviderSource{
		{Name: "YouSee", Kind: "tv", URL: "https://www.yousee.dk/tv"},
		{Name: "Kviknet", Kind: "tv", URL: "https://www.kviknet.dk/tv"},
		{Name: "Hiper", Kind: "tv", URL: "https://www.hiper.dk/tv", Key: true},
		{Name: "Altibox", Kind: "tv", URL: "https://www.altibox.dk/tv", Enabled: &disabled},
	}

	reg := BuildRegistry(models.KindTV, sources, &stubRenderer{}, nil, utils.Discard())
	if len(reg) != 4 {
		t.Fatalf("descriptors = %d; want 4", len(reg))
	}
	if !reg[0].Key || reg[1].Key || !reg[2].Key {
		t.Errorf("key flags = %t/%t/%t; want true/false/true", reg[0].Key, reg[1].Key, reg[2].Key)
	}
	if !reg[0].Enabled || reg[3].Enabled {
		t.Errorf("enabled flags = %t/%t; want true/false", reg[0].Enabled, reg[3].Enabled)
	}
	for _, d := range reg {
		if d.Producer == nil || d.Kind != models.KindTV {
			t.Errorf("descriptor %s incomplete", d.Name)
		}
	}
}

func TestIsKeyProvider(t *testing.T) {
	if !IsKeyProvider(models.KindMobile, "Lebara") {
		t.Error("Lebara should be a key mobile provider")
	}
	if IsKeyProvider(models.KindFiber, "YouSee") {
		t.Error("fiber has no built-in key providers")
	}
}

func TestPageProducerCancelledSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &stubRenderer{html: fiberPage}
	src := config.ProviderSource{
		Name:     "Hiper",
		Kind:     "fiber",
		URL:      "https://www.hiper.dk/internet",
		Fallback: []map[string]any{{"plan_navn": "Fiber 1000", "hastighed_mbit": 1000, "pris_mdr": 299}},
	}

	cands, err := PageProducer(models.KindFiber, src, r, &utils.RetryConfig{MaxAttempts: 2}, utils.Discard())(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("producer = %v; want context.Canceled", err)
	}
	if len(cands) != 0 {
		t.Errorf("cancelled producer returned %d candidates", len(cands))
	}
	if r.calls != 0 {
		t.Errorf("render calls = %d; want 0", r.calls)
	}
}
