package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"telecom-scraper/models"
	"telecom-scraper/utils"
)

// ErrEmptyDocument is returned when a snapshot file has no content.
var ErrEmptyDocument = errors.New("snapshot document is empty")

// snapshotDocument is the on-disk layout. Plans are flat field mappings using
// the Danish keys of models.Offer and its variants.
type snapshotDocument struct {
	Kind        models.Kind     `json:"kind,omitempty"`
	RunID       string          `json:"run_id,omitempty"`
	LastUpdated time.Time       `json:"last_updated"`
	TotalPlans  int             `json:"total_plans"`
	Providers   []string        `json:"providers"`
	Plans       json.RawMessage `json:"plans"`
}

// FileStore keeps the snapshot of one kind in a JSON file.
type FileStore struct {
	kind   models.Kind
	path   string
	logger *utils.Logger
}

// NewFileStore creates a store for kind at path. Nothing is touched on disk
// until Load or Save.
func NewFileStore(kind models.Kind, path string, logger *utils.Logger) *FileStore {
	return &FileStore{kind: kind, path: path, logger: logger}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the previous snapshot. A missing or corrupt file is logged and
// treated as no history.
func (s *FileStore) Load() *models.Snapshot {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("[store] No previous %s snapshot at %s", s.kind, s.path)
		return models.EmptySnapshot(s.kind)
	}
	if err != nil {
		s.logger.Warn("[store] Could not read %s: %v, treating as no history", s.path, err)
		return models.EmptySnapshot(s.kind)
	}

	snap, err := DecodeSnapshot(s.kind, data)
	if err != nil {
		s.logger.Warn("[store] Could not decode %s: %v, treating as no history", s.path, err)
		return models.EmptySnapshot(s.kind)
	}
	s.logger.Info("[store] Loaded %d existing %s records from %s", snap.Len(), s.kind, s.path)
	return snap
}

// Save writes snap next to the target and renames it into place, so readers
// see either the old or the new document, never a partial one.
func (s *FileStore) Save(snap *models.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("store: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	committed = true

	s.logger.Info("[store] Saved %d %s records to %s", snap.Len(), s.kind, s.path)
	return nil
}

// EncodeSnapshot renders the persisted document, keeping Danish characters
// unescaped.
func EncodeSnapshot(snap *models.Snapshot) ([]byte, error) {
	records := snap.Records
	if records == nil {
		records = []models.Record{}
	}
	var plans bytes.Buffer
	penc := json.NewEncoder(&plans)
	penc.SetEscapeHTML(false)
	if err := penc.Encode(records); err != nil {
		return nil, fmt.Errorf("store: encode plans: %w", err)
	}

	providers := snap.Providers
	if providers == nil {
		providers = models.ProviderSet(records)
	}

	doc := snapshotDocument{
		Kind:        snap.Kind,
		RunID:       snap.RunID,
		LastUpdated: snap.GeneratedAt,
		TotalPlans:  len(records),
		Providers:   providers,
		Plans:       bytes.TrimSpace(plans.Bytes()),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot parses a snapshot document of kind. A bare JSON array of
// plans, as written by older scraper versions, is accepted too.
func DecodeSnapshot(kind models.Kind, data []byte) (*models.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	snap := models.EmptySnapshot(kind)
	plans := data
	if data[0] != '[' {
		var doc snapshotDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if doc.Kind != "" && doc.Kind != kind {
			return nil, fmt.Errorf("document holds %q records, want %q", doc.Kind, kind)
		}
		snap.RunID = doc.RunID
		snap.GeneratedAt = doc.LastUpdated
		plans = doc.Plans
	}

	records, err := decodeRecords(kind, plans)
	if err != nil {
		return nil, err
	}
	snap.Records = records
	snap.Providers = models.ProviderSet(records)
	return snap, nil
}

func decodeRecords(kind models.Kind, plans json.RawMessage) ([]models.Record, error) {
	out := make([]models.Record, 0)
	if len(plans) == 0 || string(plans) == "null" {
		return out, nil
	}

	switch kind {
	case models.KindFiber:
		var recs []*models.FiberPlan
		if err := json.Unmarshal(plans, &recs); err != nil {
			return nil, fmt.Errorf("decode fiber plans: %w", err)
		}
		for _, r := range recs {
			if r != nil {
				out = append(out, r)
			}
		}
	case models.KindTV:
		var recs []*models.TvPackage
		if err := json.Unmarshal(plans, &recs); err != nil {
			return nil, fmt.Errorf("decode tv packages: %w", err)
		}
		for _, r := range recs {
			if r != nil {
				out = append(out, r)
			}
		}
	case models.KindMobile:
		var recs []*models.MobilePlan
		if err := json.Unmarshal(plans, &recs); err != nil {
			return nil, fmt.Errorf("decode mobile plans: %w", err)
		}
		for _, r := range recs {
			if r != nil {
				out = append(out, r)
			}
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return out, nil
}
