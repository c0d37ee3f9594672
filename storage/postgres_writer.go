package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"telecom-scraper/models"
)

const (
	offerColumns   = 9
	offerBatchSize = 50
)

// PostgresWriter mirrors saved snapshots into PostgreSQL for ad-hoc queries.
// The JSON file store stays authoritative.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS offers (
			id              SERIAL PRIMARY KEY,
			kind            VARCHAR(16)  NOT NULL,
			run_id          UUID         NOT NULL,
			provider        TEXT         NOT NULL,
			name            TEXT         NOT NULL DEFAULT '',
			monthly_price   INTEGER      NOT NULL,
			contract_months INTEGER      NOT NULL DEFAULT 0,
			promotion       TEXT         NOT NULL DEFAULT '',
			payload         JSONB        NOT NULL,
			scraped_at      TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_offers_kind     ON offers(kind);
		CREATE INDEX IF NOT EXISTS idx_offers_provider ON offers(provider);
		CREATE INDEX IF NOT EXISTS idx_offers_price    ON offers(monthly_price);

		CREATE TABLE IF NOT EXISTS snapshot_runs (
			run_id            UUID         PRIMARY KEY,
			kind              VARCHAR(16)  NOT NULL,
			total_plans       INTEGER      NOT NULL,
			providers         TEXT[]       NOT NULL,
			new_count         INTEGER      NOT NULL DEFAULT 0,
			removed_count     INTEGER      NOT NULL DEFAULT 0,
			updated_count     INTEGER      NOT NULL DEFAULT 0,
			price_changes     INTEGER      NOT NULL DEFAULT 0,
			promotion_changes INTEGER      NOT NULL DEFAULT 0,
			generated_at      TIMESTAMPTZ  NOT NULL
		);
	`)
	return err
}

// Write replaces the mirrored rows of the snapshot's kind and records the run.
// Everything happens in one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, snap *models.Snapshot, changes models.ChangeSet) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM offers WHERE kind = $1", string(snap.Kind)); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", snap.Kind, err)
	}

	for i := 0; i < len(snap.Records); i += offerBatchSize {
		end := i + offerBatchSize
		if end > len(snap.Records) {
			end = len(snap.Records)
		}
		query, args, err := buildInsert(snap.Kind, snap.RunID, snap.Records[i:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_runs (run_id, kind, total_plans, providers, new_count, removed_count,
			updated_count, price_changes, promotion_changes, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (run_id) DO NOTHING
	`, snap.RunID, string(snap.Kind), snap.Len(), pq.Array(snap.Providers), changes.New, changes.Removed,
		changes.Updated, changes.PriceChanges, changes.PromotionChanges, snap.GeneratedAt)
	if err != nil {
		return fmt.Errorf("postgres: record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// buildInsert renders one multi-row INSERT for a batch of records.
func buildInsert(kind models.Kind, runID string, batch []models.Record) (string, []any, error) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*offerColumns)

	for idx, r := range batch {
		payload, err := json.Marshal(r)
		if err != nil {
			return "", nil, fmt.Errorf("postgres: encode payload: %w", err)
		}
		o := r.Base()
		var scrapedAt any
		if !o.ScrapedAt.IsZero() {
			scrapedAt = o.ScrapedAt.Time
		}

		base := idx * offerColumns
		placeholders := make([]string, offerColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			string(kind), runID, o.Provider, recordName(r), o.MonthlyPrice,
			o.ContractMonths, o.Promotion, string(payload), scrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO offers (kind, run_id, provider, name, monthly_price, contract_months, promotion, payload, scraped_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs, nil
}

// recordName is the human label of a record: plan or package name, or the
// data allowance for mobile plans.
func recordName(r models.Record) string {
	switch v := r.(type) {
	case *models.FiberPlan:
		if v.PlanName != "" {
			return v.PlanName
		}
		return fmt.Sprintf("%d Mbit", v.SpeedMbit)
	case *models.TvPackage:
		return v.PackageName
	case *models.MobilePlan:
		if v.Unlimited() {
			return "Fri data"
		}
		return fmt.Sprintf("%d GB", v.DataGB)
	}
	return ""
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
