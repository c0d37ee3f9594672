package services

import (
	"errors"
	"fmt"
	"time"

	"telecom-scraper/models"
)

// Rejection reasons. Validate wraps one of these so callers can log a stable
// reason code with errors.Is.
var (
	ErrNilRecord       = errors.New("record is nil")
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrMissingProvider = errors.New("missing provider")
	ErrMissingPrice    = errors.New("monthly price must be positive")
	ErrMissingSpeed    = errors.New("speed must be positive")
	ErrMissingChannels = errors.New("channel count must be positive")
	ErrNegativeValue   = errors.New("numeric field is negative")
)

// Validator enforces the minimal completeness contract per record kind.
// It holds no state; the zero value is ready to use.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns nil when the record may be persisted.
func (v *Validator) Validate(r models.Record) error {
	if isNilRecord(r) {
		return ErrNilRecord
	}
	base := r.Base()
	if base.Provider == "" {
		return ErrMissingProvider
	}
	if base.ContractMonths < 0 {
		return fmt.Errorf("%w: contract months %d", ErrNegativeValue, base.ContractMonths)
	}

	switch rec := r.(type) {
	case *models.FiberPlan:
		if rec.SpeedMbit <= 0 {
			return ErrMissingSpeed
		}
		if rec.MonthlyPrice <= 0 {
			return ErrMissingPrice
		}
	case *models.TvPackage:
		if rec.ChannelCount <= 0 {
			return ErrMissingChannels
		}
		if rec.MonthlyPrice <= 0 {
			return ErrMissingPrice
		}
	case *models.MobilePlan:
		if rec.MonthlyPrice <= 0 {
			return ErrMissingPrice
		}
		// 0 GB is a legal voice-only plan, distinct from the unlimited sentinel.
		if rec.DataGB < 0 {
			return fmt.Errorf("%w: data %d GB", ErrNegativeValue, rec.DataGB)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
	return nil
}

func isNilRecord(r models.Record) bool {
	switch rec := r.(type) {
	case nil:
		return true
	case *models.FiberPlan:
		return rec == nil
	case *models.TvPackage:
		return rec == nil
	case *models.MobilePlan:
		return rec == nil
	}
	return false
}

// ReasonCode is the short label used in logs and stats for a rejection.
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNilRecord):
		return "nil_record"
	case errors.Is(err, ErrMissingProvider):
		return "missing_provider"
	case errors.Is(err, ErrMissingPrice):
		return "missing_price"
	case errors.Is(err, ErrMissingSpeed):
		return "missing_speed"
	case errors.Is(err, ErrMissingChannels):
		return "missing_channels"
	case errors.Is(err, ErrNegativeValue):
		return "negative_value"
	case errors.Is(err, ErrUnknownKind):
		return "unknown_kind"
	default:
		return "invalid"
	}
}

// Filter keeps the valid records in order and returns the rejected ones with
// their reasons. Running Filter on its own output drops nothing.
func (v *Validator) Filter(records []models.Record) ([]models.Record, []Rejected) {
	kept := make([]models.Record, 0, len(records))
	var rejected []Rejected
	for _, r := range records {
		if err := v.Validate(r); err != nil {
			rj := Rejected{Record: r, Err: err}
			if !isNilRecord(r) {
				rj.Provider = r.Base().Provider
			}
			rejected = append(rejected, rj)
			continue
		}
		kept = append(kept, r)
	}
	return kept, rejected
}

// Rejected pairs a dropped record with why it was dropped.
type Rejected struct {
	Provider  string
	Record    models.Record
	Raw       models.RawCandidate
	ScrapedAt time.Time
	Err       error
}
