package storage

import (
	"context"

	"telecom-scraper/models"
)

// SnapshotStore is the sole reader and writer of the persisted snapshot of
// one kind.
type SnapshotStore interface {
	// Load never fails: a missing or unreadable snapshot is empty history.
	Load() *models.Snapshot
	Save(snap *models.Snapshot) error
}

// SnapshotMirror replicates a saved snapshot into a secondary backend.
type SnapshotMirror interface {
	Write(ctx context.Context, snap *models.Snapshot, changes models.ChangeSet) error
	Close() error
}

// RejectWriter persists candidates dropped by validation for later diagnosis.
type RejectWriter interface {
	WriteRejected(rejected []models.RejectedCandidate) error
	Close() error
}
