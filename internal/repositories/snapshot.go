package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/splay/internal/models"
)

// SnapshotRepository stores the last playback snapshot observed per device.
//
// One row per device, overwritten on every save. The payload is the JSON
// encoding of [models.PlaybackSnapshot] so schema churn in the snapshot does
// not require a migration.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot for its owning device. Snapshots without a device
// ID are skipped, not errors: a 204 poll has nothing to attribute.
func (r *SnapshotRepository) Save(snapshot *models.PlaybackSnapshot) error {
	if snapshot == nil || snapshot.DeviceID == "" {
		return nil
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (device_id, payload, saved_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(device_id) DO UPDATE SET
		   payload = excluded.payload,
		   saved_at = CURRENT_TIMESTAMP`,
		snapshot.DeviceID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get returns the stored snapshot for a device, or nil when none exists.
func (r *SnapshotRepository) Get(deviceID string) (*models.PlaybackSnapshot, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM snapshots WHERE device_id = ?", deviceID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot models.PlaybackSnapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}
