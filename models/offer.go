package models

import (
	"bytes"
	"strings"
	"time"
)

// Kind identifies which offer domain a record or snapshot belongs to.
type Kind string

const (
	KindFiber  Kind = "fiber"
	KindTV     Kind = "tv"
	KindMobile Kind = "mobil"
)

// AllKinds lists the kinds in the order a full run processes them.
var AllKinds = []Kind{KindFiber, KindTV, KindMobile}

// ParseKind accepts the canonical names plus a few common aliases.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fiber", "internet":
		return KindFiber, true
	case "tv":
		return KindTV, true
	case "mobil", "mobile":
		return KindMobile, true
	}
	return "", false
}

// FileName is the snapshot document name used for this kind.
func (k Kind) FileName() string {
	return string(k) + ".json"
}

// Well-known candidate keys. Producers emit these; persisted records use the
// same names so existing data files stay readable by the site front-end.
const (
	FieldProvider       = "udbyder"
	FieldSpeed          = "hastighed_mbit"
	FieldPrice          = "pris_mdr"
	FieldContract       = "bindingstid_mdr"
	FieldPromotion      = "kampagne"
	FieldPlanName       = "plan_navn"
	FieldDescription    = "beskrivelse"
	FieldFeatures       = "features"
	FieldRating         = "rating"
	FieldPackageName    = "pakke_navn"
	FieldChannels       = "kanaler"
	FieldCategory       = "kategori"
	FieldCTAURL         = "cta_url"
	FieldDataGB         = "data_GB"
	FieldEURoaming      = "roaming_EU"
	FieldFamilyDiscount = "familierabat"
	FieldScrapedAt      = "scraped_at"
)

// RawCandidate is the loosely structured output of a provider producer.
// Nothing about it is guaranteed: keys may be missing and values may be text
// or numbers.
type RawCandidate map[string]any

// Offer is the envelope shared by every record kind.
type Offer struct {
	Provider       string    `json:"udbyder"`
	MonthlyPrice   int       `json:"pris_mdr"`
	ContractMonths int       `json:"bindingstid_mdr"`
	Promotion      string    `json:"kampagne"`
	ScrapedAt      Timestamp `json:"scraped_at"`
}

// Timestamp is a time that decodes leniently: besides RFC 3339 it accepts the
// zone-less ISO form found in older data files, and anything unreadable
// decodes to the zero time instead of failing the whole document.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	t.Time = time.Time{}
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// Record is implemented by the three typed offer variants.
type Record interface {
	Base() *Offer
	Kind() Kind
}

// FiberPlan is a fiber internet subscription.
type FiberPlan struct {
	Offer
	SpeedMbit   int      `json:"hastighed_mbit"`
	PlanName    string   `json:"plan_navn"`
	Description string   `json:"beskrivelse"`
	Features    []string `json:"features"`
	Rating      float64  `json:"rating"`
}

func (p *FiberPlan) Base() *Offer { return &p.Offer }
func (p *FiberPlan) Kind() Kind   { return KindFiber }

// TvCategory is the package category shown on the comparison site.
type TvCategory string

const (
	CategoryBasis        TvCategory = "Basis"
	CategoryFilmSerier   TvCategory = "Film & Serier"
	CategorySport        TvCategory = "Sport"
	CategoryAllInclusive TvCategory = "All Inclusive"
	CategorySportFilm    TvCategory = "Sport & Film"
)

// TvPackage is a TV channel package.
type TvPackage struct {
	Offer
	PackageName  string     `json:"pakke_navn"`
	ChannelCount int        `json:"kanaler"`
	Category     TvCategory `json:"kategori"`
	CTAURL       string     `json:"cta_url"`
}

func (p *TvPackage) Base() *Offer { return &p.Offer }
func (p *TvPackage) Kind() Kind   { return KindTV }

// UnlimitedDataGB marks a mobile plan with unlimited data.
const UnlimitedDataGB = 999

// NoFamilyDiscount is stored when a plan has no family discount.
const NoFamilyDiscount = "Nej"

// MobilePlan is a mobile subscription.
type MobilePlan struct {
	Offer
	DataGB         int    `json:"data_GB"`
	EURoaming      bool   `json:"roaming_EU"`
	FamilyDiscount string `json:"familierabat"`
	CTAURL         string `json:"cta_url,omitempty"`
}

func (p *MobilePlan) Base() *Offer { return &p.Offer }
func (p *MobilePlan) Kind() Kind   { return KindMobile }

// Unlimited reports whether the plan carries the unlimited-data sentinel.
func (p *MobilePlan) Unlimited() bool {
	return p.DataGB == UnlimitedDataGB
}

// TaggedCandidate is a raw candidate after the aggregator has stamped it with
// the configured provider name and the scrape time.
type TaggedCandidate struct {
	Provider  string
	ScrapedAt time.Time
	Raw       RawCandidate
}

// RejectedCandidate is a candidate the validator dropped, kept for diagnosis.
type RejectedCandidate struct {
	Kind      Kind
	Provider  string
	Reason    string
	Error     string
	Raw       RawCandidate
	ScrapedAt time.Time
}
