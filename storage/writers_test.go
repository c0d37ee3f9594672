package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telecom-scraper/models"
)

func TestBuildInsert(t *testing.T) {
	records := []models.Record{
		&models.FiberPlan{
			Offer:     models.Offer{Provider: "Hiper", MonthlyPrice: 299, ScrapedAt: models.At(generatedAt)},
			SpeedMbit: 1000,
			PlanName:  "Fiber 1000",
		},
		&models.MobilePlan{
			Offer:  models.Offer{Provider: "Telia", MonthlyPrice: 249},
			DataGB: models.UnlimitedDataGB,
		},
	}

	query, args, err := buildInsert(models.KindFiber, "run-1", records)
	if err != nil {
		t.Fatalf("buildInsert: %v", err)
	}
	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,$11,$12,$13,$14,$15,$16,$17,$18)") {
		t.Errorf("unexpected placeholders in %s", query)
	}
	if len(args) != 2*offerColumns {
		t.Fatalf("args = %d; want %d", len(args), 2*offerColumns)
	}
	if args[2] != "Hiper" || args[3] != "Fiber 1000" || args[4] != 299 {
		t.Errorf("first row = %v", args[:offerColumns])
	}
	if !strings.Contains(args[7].(string), `"hastighed_mbit":1000`) {
		t.Errorf("payload = %v", args[7])
	}
	if args[12] != "Fri data" {
		t.Errorf("unlimited plan name = %v", args[12])
	}
	if args[17] != nil {
		t.Errorf("zero scraped_at should be NULL, got %v", args[17])
	}
}

func TestRecordName(t *testing.T) {
	tests := []struct {
		rec  models.Record
		want string
	}{
		{&models.FiberPlan{SpeedMbit: 500}, "500 Mbit"},
		{&models.FiberPlan{PlanName: "Fiber Max"}, "Fiber Max"},
		{&models.TvPackage{PackageName: "Basis"}, "Basis"},
		{&models.MobilePlan{DataGB: 30}, "30 GB"},
	}
	for _, tt := range tests {
		if got := recordName(tt.rec); got != tt.want {
			t.Errorf("recordName(%T) = %q; want %q", tt.rec, got, tt.want)
		}
	}
}

func TestCSVWriterRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rejected_tv.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	err = w.WriteRejected([]models.RejectedCandidate{{
		Kind:      models.KindTV,
		Provider:  "Stofa",
		Reason:    "missing_channels",
		Error:     "channel count must be positive",
		Raw:       models.RawCandidate{"pakke_navn": "Mellem, stor", "pris_mdr": "399 kr"},
		ScrapedAt: generatedAt,
	}})
	if err != nil {
		t.Fatalf("WriteRejected: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want header + 1", len(rows))
	}
	row := rows[1]
	if row[0] != "tv" || row[1] != "Stofa" || row[2] != "missing_channels" {
		t.Errorf("row = %v", row)
	}
	if !strings.Contains(row[4], `"pakke_navn":"Mellem, stor"`) {
		t.Errorf("raw = %s", row[4])
	}
	if row[5] != "2025-03-01T06:00:00Z" {
		t.Errorf("scraped_at = %s", row[5])
	}
}
