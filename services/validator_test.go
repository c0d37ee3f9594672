package services

import (
	"errors"
	"testing"

	"telecom-scraper/models"
)

func fiber(provider, name string, speed, price int) *models.FiberPlan {
	return &models.FiberPlan{
		Offer:     models.Offer{Provider: provider, MonthlyPrice: price},
		SpeedMbit: speed,
		PlanName:  name,
		Features:  []string{},
	}
}

func tvPackage(provider, name string, channels, price int) *models.TvPackage {
	return &models.TvPackage{
		Offer:        models.Offer{Provider: provider, MonthlyPrice: price},
		PackageName:  name,
		ChannelCount: channels,
	}
}

func mobile(provider string, dataGB, price int) *models.MobilePlan {
	return &models.MobilePlan{
		Offer:          models.Offer{Provider: provider, MonthlyPrice: price},
		DataGB:         dataGB,
		FamilyDiscount: models.NoFamilyDiscount,
	}
}

func TestValidatorRules(t *testing.T) {
	var nilFiber *models.FiberPlan

	tests := []struct {
		name string
		rec  models.Record
		want error
	}{
		{"valid fiber", fiber("Hiper", "Fiber 1000", 1000, 299), nil},
		{"fiber without speed", fiber("Hiper", "Fiber", 0, 299), ErrMissingSpeed},
		{"fiber without price", fiber("Hiper", "Fiber", 1000, 0), ErrMissingPrice},
		{"valid tv", tvPackage("YouSee", "Bland Selv 10", 40, 399), nil},
		{"tv without channels", tvPackage("YouSee", "Bland Selv 10", 0, 399), ErrMissingChannels},
		{"tv without price", tvPackage("YouSee", "Bland Selv 10", 40, 0), ErrMissingPrice},
		{"valid mobile", mobile("Telia", 30, 179), nil},
		{"voice only mobile", mobile("Telia", 0, 99), nil},
		{"unlimited mobile", mobile("Telia", models.UnlimitedDataGB, 249), nil},
		{"mobile without price", mobile("Telia", 30, 0), ErrMissingPrice},
		{"mobile negative data", mobile("Telia", -1, 99), ErrNegativeValue},
		{"missing provider", fiber("", "Fiber", 1000, 299), ErrMissingProvider},
		{"nil interface", nil, ErrNilRecord},
		{"typed nil", nilFiber, ErrNilRecord},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.rec)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v; want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestValidatorNegativeContract(t *testing.T) {
	rec := fiber("Hiper", "Fiber", 1000, 299)
	rec.ContractMonths = -6
	if err := NewValidator().Validate(rec); !errors.Is(err, ErrNegativeValue) {
		t.Errorf("Validate() = %v; want ErrNegativeValue", err)
	}
}

func TestReasonCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{ErrMissingPrice, "missing_price"},
		{ErrMissingSpeed, "missing_speed"},
		{ErrMissingChannels, "missing_channels"},
		{ErrMissingProvider, "missing_provider"},
		{ErrNilRecord, "nil_record"},
		{errors.New("boom"), "invalid"},
	}
	for _, tt := range tests {
		if got := ReasonCode(tt.err); got != tt.want {
			t.Errorf("ReasonCode(%v) = %q; want %q", tt.err, got, tt.want)
		}
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	records := []models.Record{
		fiber("Hiper", "Fiber 500", 500, 249),
		fiber("Hiper", "Broken", 0, 249),
		tvPackage("Waoo", "Basis", 30, 199),
		mobile("Telia", 30, 0),
		mobile("Lebara", 0, 59),
	}

	v := NewValidator()
	first, rejected := v.Filter(records)
	if len(first) != 3 {
		t.Fatalf("first pass kept %d; want 3", len(first))
	}
	if len(rejected) != 2 {
		t.Fatalf("first pass rejected %d; want 2", len(rejected))
	}
	if rejected[1].Provider != "Telia" {
		t.Errorf("rejected provider = %q; want Telia", rejected[1].Provider)
	}

	second, rejectedAgain := v.Filter(first)
	if len(rejectedAgain) != 0 {
		t.Fatalf("second pass rejected %d; want 0", len(rejectedAgain))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d changed on second pass", i)
		}
	}
}
