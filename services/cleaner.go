package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"telecom-scraper/models"
	"telecom-scraper/utils"
)

// Cleaner turns tagged raw candidates into validated typed records.
type Cleaner struct {
	logger    *utils.Logger
	validator *Validator
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, validator: NewValidator()}
}

// Clean normalizes every candidate into a record of the given kind and drops
// the ones that fail validation. Drops are logged with provider and payload.
func (c *Cleaner) Clean(kind models.Kind, candidates []models.TaggedCandidate) ([]models.Record, []Rejected) {
	result := make([]models.Record, 0, len(candidates))
	var rejected []Rejected

	for _, cand := range candidates {
		rec, err := Build(kind, cand)
		if err == nil {
			err = c.validator.Validate(rec)
		}
		if err != nil {
			c.logger.Warn("[cleaner] Dropping %s candidate from %s (%s): %v | raw=%s",
				kind, cand.Provider, ReasonCode(err), err, payloadString(cand.Raw))
			rejected = append(rejected, Rejected{
				Provider:  cand.Provider,
				Record:    rec,
				Raw:       cand.Raw,
				ScrapedAt: cand.ScrapedAt,
				Err:       err,
			})
			continue
		}
		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Cleaned %d -> %d %s records (dropped %d)",
		len(candidates), len(result), kind, len(rejected))
	return result, rejected
}

// Build maps the well-known candidate keys onto a typed record. It never
// fails on field content; only an unknown kind is an error.
func Build(kind models.Kind, cand models.TaggedCandidate) (models.Record, error) {
	raw := cand.Raw
	offer := models.Offer{
		Provider:       cand.Provider,
		MonthlyPrice:   intField(raw, NormalizePrice, models.FieldPrice, "price"),
		ContractMonths: intField(raw, NormalizeContractLength, models.FieldContract, "contract"),
		Promotion:      NormalizeText(textField(raw, models.FieldPromotion, "promotion")),
		ScrapedAt:      models.At(cand.ScrapedAt),
	}

	switch kind {
	case models.KindFiber:
		return &models.FiberPlan{
			Offer:       offer,
			SpeedMbit:   intField(raw, NormalizeSpeed, models.FieldSpeed, "speed"),
			PlanName:    NormalizeText(textField(raw, models.FieldPlanName, "name")),
			Description: NormalizeText(textField(raw, models.FieldDescription, "description")),
			Features:    featuresField(raw[models.FieldFeatures]),
			Rating:      ratingField(raw[models.FieldRating]),
		}, nil

	case models.KindTV:
		name := NormalizeText(textField(raw, models.FieldPackageName, models.FieldPlanName, "name"))
		category := NormalizeCategory(textField(raw, models.FieldCategory, "category"))
		if category == "" {
			category = NormalizeCategory(name)
		}
		return &models.TvPackage{
			Offer:        offer,
			PackageName:  name,
			ChannelCount: intField(raw, NormalizeCount, models.FieldChannels, "channels"),
			Category:     category,
			CTAURL:       strings.TrimSpace(textField(raw, models.FieldCTAURL, "url")),
		}, nil

	case models.KindMobile:
		discount := NormalizeText(textField(raw, models.FieldFamilyDiscount, "family_discount"))
		if discount == "" {
			discount = models.NoFamilyDiscount
		}
		return &models.MobilePlan{
			Offer:          offer,
			DataGB:         intField(raw, NormalizeDataGB, models.FieldDataGB, "data_gb", "data"),
			EURoaming:      flagField(raw[models.FieldEURoaming]),
			FamilyDiscount: discount,
			CTAURL:         strings.TrimSpace(textField(raw, models.FieldCTAURL, "url")),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func lookup(raw models.RawCandidate, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func textField(raw models.RawCandidate, keys ...string) string {
	return asText(lookup(raw, keys...))
}

// intField truncates numeric values directly and runs text through parse.
func intField(raw models.RawCandidate, parse func(string) int, keys ...string) int {
	v := lookup(raw, keys...)
	if f, ok := asNumber(v); ok {
		if f < 0 || f > math.MaxInt32 || math.IsNaN(f) {
			return 0
		}
		return int(f)
	}
	return parse(asText(v))
}

func ratingField(v any) float64 {
	if f, ok := asNumber(v); ok {
		if f < 0 || f > 5 || math.IsNaN(f) {
			return 0
		}
		return f
	}
	return NormalizeRating(asText(v))
}

func flagField(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := asNumber(v); ok {
		return f != 0
	}
	return NormalizeFlag(asText(v))
}

func featuresField(v any) []string {
	out := make([]string, 0)
	add := func(s string) {
		if s = NormalizeText(s); s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, s := range t {
			add(asText(s))
		}
	case string:
		for _, s := range strings.FieldsFunc(t, func(r rune) bool {
			return r == '\n' || r == ';' || r == '|'
		}) {
			add(s)
		}
	}
	return out
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func payloadString(raw models.RawCandidate) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}
