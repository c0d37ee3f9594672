package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"telecom-scraper/models"
)

// CSVWriter writes candidates dropped by validation to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"kind", "provider", "reason", "error", "raw", "scraped_at"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRejected appends one row per rejected candidate. The raw payload is
// stored as JSON.
func (c *CSVWriter) WriteRejected(rejected []models.RejectedCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rejected {
		raw, err := json.Marshal(r.Raw)
		if err != nil {
			raw = []byte(fmt.Sprintf("%v", r.Raw))
		}
		scrapedAt := ""
		if !r.ScrapedAt.IsZero() {
			scrapedAt = r.ScrapedAt.Format(time.RFC3339)
		}
		row := []string{string(r.Kind), r.Provider, r.Reason, r.Error, string(raw), scrapedAt}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
