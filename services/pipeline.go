package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telecom-scraper/models"
	"telecom-scraper/scraper"
	"telecom-scraper/storage"
	"telecom-scraper/utils"
)

var (
	// ErrEmptyBatch means no record survived collection and validation. The
	// previous snapshot is left untouched.
	ErrEmptyBatch = errors.New("no valid records collected")
	// ErrPersistence wraps a failed snapshot save.
	ErrPersistence = errors.New("snapshot could not be saved")
	// ErrInterrupted means the run was cancelled before it could be saved.
	ErrInterrupted = errors.New("run interrupted")
)

// RunOptions selects mode and outputs for one pipeline run.
type RunOptions struct {
	Mode  string
	Force bool
	Store storage.SnapshotStore
	// Mirror and Rejects are optional.
	Mirror  storage.SnapshotMirror
	Rejects storage.RejectWriter
}

// Pipeline runs collect, clean, diff and persist for one kind at a time.
type Pipeline struct {
	aggregator *Aggregator
	cleaner    *Cleaner
	logger     *utils.Logger
	now        func() time.Time
	newRunID   func() string
}

// NewPipeline creates a Pipeline.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		aggregator: NewAggregator(logger),
		cleaner:    NewCleaner(logger),
		logger:     logger,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// Run scrapes the providers of kind and replaces the stored snapshot when the
// new batch differs from it or opts.Force is set. The returned report is never
// nil; its Err mirrors the returned error.
func (p *Pipeline) Run(ctx context.Context, kind models.Kind, providers []scraper.Descriptor, opts RunOptions) (*models.RunReport, error) {
	report := &models.RunReport{Kind: kind, Mode: opts.Mode, Forced: opts.Force}
	fail := func(err error) (*models.RunReport, error) {
		report.Err = err
		return report, err
	}
	if opts.Store == nil {
		return fail(fmt.Errorf("%s: no snapshot store configured", kind))
	}

	prev := opts.Store.Load()
	report.Previous = prev.Len()

	agg := p.aggregator.Collect(ctx, kind, providers, opts.Mode)
	report.Succeeded = agg.Succeeded
	report.Failed = agg.Failed

	records, rejected := p.cleaner.Clean(kind, agg.Candidates)
	report.Providers = providerStats(agg.Stats, records, rejected)
	report.TotalRecords = len(records)
	report.Rejected = len(rejected)
	p.writeRejected(kind, opts.Rejects, rejected)

	if err := ctx.Err(); err != nil {
		p.logger.Warn("[%s] Interrupted, keeping previous snapshot", kind)
		return fail(fmt.Errorf("%s: %w: %w", kind, ErrInterrupted, err))
	}
	if len(records) == 0 {
		p.logger.Error("[%s] No valid records collected, keeping previous snapshot", kind)
		return fail(fmt.Errorf("%s: %w", kind, ErrEmptyBatch))
	}

	next := models.NewSnapshot(kind, records, p.now())
	next.RunID = p.newRunID()

	changes := Diff(prev, next)
	report.Changes = changes
	p.logger.Info("[%s] Changes: %d new, %d removed, %d updated (%d price, %d promotion)",
		kind, changes.New, changes.Removed, changes.Updated, changes.PriceChanges, changes.PromotionChanges)

	if changes.IsEmpty() && !opts.Force {
		p.logger.Info("[%s] No changes detected, snapshot left as is", kind)
		return report, nil
	}
	if changes.IsEmpty() {
		p.logger.Info("[%s] No changes detected, saving anyway (forced)", kind)
	}

	if err := opts.Store.Save(next); err != nil {
		p.logger.Error("[%s] Save failed: %v", kind, err)
		return fail(fmt.Errorf("%s: %w: %w", kind, ErrPersistence, err))
	}
	report.Saved = true

	if opts.Mirror != nil {
		if err := opts.Mirror.Write(ctx, next, changes); err != nil {
			p.logger.Warn("[%s] Mirror write failed: %v", kind, err)
		} else {
			p.logger.Info("[%s] Mirrored %d records (run %s)", kind, next.Len(), next.RunID)
		}
	}
	return report, nil
}

func (p *Pipeline) writeRejected(kind models.Kind, w storage.RejectWriter, rejected []Rejected) {
	if w == nil || len(rejected) == 0 {
		return
	}
	out := make([]models.RejectedCandidate, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, models.RejectedCandidate{
			Kind:      kind,
			Provider:  r.Provider,
			Reason:    ReasonCode(r.Err),
			Error:     r.Err.Error(),
			Raw:       r.Raw,
			ScrapedAt: r.ScrapedAt,
		})
	}
	if err := w.WriteRejected(out); err != nil {
		p.logger.Warn("[%s] Could not write rejected candidates: %v", kind, err)
	}
}

// providerStats turns the aggregator's candidate counts into kept and
// rejected record counts per provider.
func providerStats(stats []models.ProviderStat, kept []models.Record, rejected []Rejected) []models.ProviderStat {
	keptBy := make(map[string]int)
	for _, r := range kept {
		keptBy[r.Base().Provider]++
	}
	rejectedBy := make(map[string]int)
	for _, r := range rejected {
		rejectedBy[r.Provider]++
	}

	out := make([]models.ProviderStat, len(stats))
	for i, s := range stats {
		if s.Skipped == "" && s.Failures == 0 {
			s.Records = keptBy[s.Name]
			s.Rejected = rejectedBy[s.Name]
		}
		out[i] = s
	}
	return out
}
