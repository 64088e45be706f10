package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/splay/internal/models"
)

// CollectionRepository caches fetched collections in SQLite.
//
// Implements tasks.CollectionStore. Saving is last-write-wins per collection
// ID and replaces the stored track list inside one transaction.
type CollectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new CollectionRepository with the given database connection
func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// CollectionRecord is a cached collection as listed, without its tracks.
type CollectionRecord struct {
	ID         string
	Name       string
	Owner      string
	URI        string
	TrackCount int
	FetchedAt  time.Time
}

// SaveCollection stores a collection and its ordered tracks, replacing any
// previously cached copy.
func (r *CollectionRepository) SaveCollection(collection *models.Collection) error {
	if collection == nil || collection.ID == "" {
		return fmt.Errorf("collection is missing an ID")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO collections (id, name, owner, uri, fetched_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   owner = excluded.owner,
		   uri = excluded.uri,
		   fetched_at = CURRENT_TIMESTAMP`,
		collection.ID, collection.Name, collection.Owner, collection.URI,
	)
	if err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM collection_tracks WHERE collection_id = ?", collection.ID); err != nil {
		return fmt.Errorf("failed to clear cached tracks: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO collection_tracks (collection_id, position, id, title, artists, album, album_year)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, track := range collection.Tracks {
		artists, err := encodeArtists(track.Artists)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(collection.ID, i, track.ID, track.Title, artists, track.Album, track.AlbumYear); err != nil {
			return fmt.Errorf("failed to save track %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

// Get returns a cached collection with its tracks in fetch order.
func (r *CollectionRepository) Get(id string) (*models.Collection, error) {
	collection := &models.Collection{}
	err := r.db.QueryRow(
		"SELECT id, name, owner, uri FROM collections WHERE id = ?", id,
	).Scan(&collection.ID, &collection.Name, &collection.Owner, &collection.URI)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT id, title, artists, album, album_year
		 FROM collection_tracks WHERE collection_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track models.Track
		var artists string
		if err := rows.Scan(&track.ID, &track.Title, &artists, &track.Album, &track.AlbumYear); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		if track.Artists, err = decodeArtists(artists); err != nil {
			return nil, err
		}
		collection.Tracks = append(collection.Tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}
	return collection, nil
}

// List returns all cached collections, most recently fetched first.
func (r *CollectionRepository) List() ([]CollectionRecord, error) {
	rows, err := r.db.Query(
		`SELECT c.id, c.name, c.owner, c.uri, c.fetched_at,
		        (SELECT COUNT(*) FROM collection_tracks t WHERE t.collection_id = c.id)
		 FROM collections c ORDER BY c.fetched_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var records []CollectionRecord
	for rows.Next() {
		var rec CollectionRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Owner, &rec.URI, &rec.FetchedAt, &rec.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}
	return records, nil
}

// Delete removes a cached collection and, via the foreign key cascade, its tracks.
func (r *CollectionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("collection not found: %s", id)
	}
	return nil
}

// Clear removes every cached collection.
func (r *CollectionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM collections"); err != nil {
		return fmt.Errorf("failed to clear collections: %w", err)
	}
	return nil
}
