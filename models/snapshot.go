package models

import (
	"sort"
	"time"
)

// Snapshot is the full record set of one kind as produced by one run.
type Snapshot struct {
	Kind        Kind
	RunID       string
	GeneratedAt time.Time
	Providers   []string
	Records     []Record
}

// NewSnapshot builds a snapshot and derives its provider set from the records.
func NewSnapshot(kind Kind, records []Record, generatedAt time.Time) *Snapshot {
	return &Snapshot{
		Kind:        kind,
		GeneratedAt: generatedAt,
		Providers:   ProviderSet(records),
		Records:     records,
	}
}

// EmptySnapshot is what a run diffs against when no history exists.
func EmptySnapshot(kind Kind) *Snapshot {
	return &Snapshot{Kind: kind, Providers: []string{}, Records: []Record{}}
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// ProviderSet returns the sorted, de-duplicated provider names in records.
func ProviderSet(records []Record) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		name := r.Base().Provider
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ChangeType classifies a single entry in a ChangeSet.
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeRemoved ChangeType = "removed"
	ChangeUpdated ChangeType = "updated"
)

// RecordChange describes how one identity key differs between two snapshots.
type RecordChange struct {
	Type             ChangeType
	Key              string
	Provider         string
	OldPrice         int
	NewPrice         int
	OldPromotion     string
	NewPromotion     string
	PriceChanged     bool
	PromotionChanged bool
}

// ChangeSet is the classified difference between two snapshots.
type ChangeSet struct {
	New              int
	Removed          int
	Updated          int
	PriceChanges     int
	PromotionChanges int
	Entries          []RecordChange
}

// IsEmpty reports whether no counter is set.
func (c ChangeSet) IsEmpty() bool {
	return c.New == 0 && c.Removed == 0 && c.Updated == 0 &&
		c.PriceChanges == 0 && c.PromotionChanges == 0
}

// ProviderStat is the per-provider outcome of one aggregation pass.
type ProviderStat struct {
	Name     string
	Skipped  string
	Records  int
	Rejected int
	Failures int
	Err      string
}

// RunReport is everything the run summary needs for one kind.
type RunReport struct {
	Kind         Kind
	Mode         string
	Forced       bool
	Providers    []ProviderStat
	Succeeded    int
	Failed       int
	TotalRecords int
	Rejected     int
	Previous     int
	Changes      ChangeSet
	Saved        bool
	Err          error
}
