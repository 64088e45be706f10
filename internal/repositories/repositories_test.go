package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func intPtr(v int) *int { return &v }

func testCollection() *models.Collection {
	return &models.Collection{
		ID:    "pl-1",
		Name:  "Road Trip",
		Owner: "alice",
		URI:   "spotify:playlist:pl-1",
		Tracks: []models.Track{
			{ID: "t-1", Title: "First", Artists: []string{"A, B & The Commas", "C"}, Album: "Album One", AlbumYear: intPtr(1999)},
			{ID: "t-2", Title: "Second", Artists: []string{"Solo"}, Album: "Album Two"},
		},
	}
}

func TestCollectionRepository(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.SaveCollection(testCollection()); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}

		got, err := repo.Get("pl-1")
		if err != nil {
			t.Fatalf("failed to get collection: %v", err)
		}
		if got.Name != "Road Trip" || got.Owner != "alice" {
			t.Errorf("collection = %+v, want name and owner preserved", got)
		}
		if len(got.Tracks) != 2 {
			t.Fatalf("got %d tracks, want 2", len(got.Tracks))
		}
		if got.Tracks[0].ID != "t-1" || got.Tracks[1].ID != "t-2" {
			t.Errorf("tracks out of order: %s, %s", got.Tracks[0].ID, got.Tracks[1].ID)
		}
		if len(got.Tracks[0].Artists) != 2 || got.Tracks[0].Artists[0] != "A, B & The Commas" {
			t.Errorf("artists = %v, want names with separators intact", got.Tracks[0].Artists)
		}
		if got.Tracks[0].AlbumYear == nil || *got.Tracks[0].AlbumYear != 1999 {
			t.Errorf("album year = %v, want 1999", got.Tracks[0].AlbumYear)
		}
		if got.Tracks[1].AlbumYear != nil {
			t.Errorf("album year = %v, want nil for unknown", got.Tracks[1].AlbumYear)
		}
	})

	t.Run("SaveReplacesTracks", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.SaveCollection(testCollection()); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}

		updated := testCollection()
		updated.Name = "Road Trip (edited)"
		updated.Tracks = updated.Tracks[:1]
		if err := repo.SaveCollection(updated); err != nil {
			t.Fatalf("failed to re-save collection: %v", err)
		}

		got, err := repo.Get("pl-1")
		if err != nil {
			t.Fatalf("failed to get collection: %v", err)
		}
		if got.Name != "Road Trip (edited)" {
			t.Errorf("name = %s, want updated name", got.Name)
		}
		if len(got.Tracks) != 1 {
			t.Errorf("got %d tracks after re-save, want 1", len(got.Tracks))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if _, err := repo.Get("nope"); err == nil {
			t.Error("expected error for missing collection")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		first := testCollection()
		second := testCollection()
		second.ID = "pl-2"
		second.Name = "Focus"
		if err := repo.SaveCollection(first); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}
		if err := repo.SaveCollection(second); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}

		records, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list collections: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		for _, rec := range records {
			if rec.TrackCount != 2 {
				t.Errorf("record %s track count = %d, want 2", rec.ID, rec.TrackCount)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.SaveCollection(testCollection()); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}
		if err := repo.Delete("pl-1"); err != nil {
			t.Fatalf("failed to delete collection: %v", err)
		}
		if _, err := repo.Get("pl-1"); err == nil {
			t.Error("expected error after delete")
		}

		var trackCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM collection_tracks").Scan(&trackCount); err != nil {
			t.Fatalf("failed to count tracks: %v", err)
		}
		if trackCount != 0 {
			t.Errorf("got %d orphaned tracks, want cascade to remove them", trackCount)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.Delete("nope"); err == nil {
			t.Error("expected error deleting missing collection")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.SaveCollection(testCollection()); err != nil {
			t.Fatalf("failed to save collection: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear collections: %v", err)
		}

		records, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list collections: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records after clear, want 0", len(records))
		}
	})

	t.Run("SaveWithoutID", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCollectionRepository(db)

		if err := repo.SaveCollection(&models.Collection{Name: "No ID"}); err == nil {
			t.Error("expected error saving a collection without an ID")
		}
	})
}

func TestSnapshotRepository(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		snap := &models.PlaybackSnapshot{
			Playing:        true,
			Shuffle:        true,
			DeviceID:       "dev-1",
			DeviceName:     "Kitchen",
			SupportsVolume: true,
			VolumePercent:  intPtr(60),
			Track:          &models.Track{ID: "t-1", Title: "First", Artists: []string{"Solo"}},
		}
		if err := repo.Save(snap); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		got, err := repo.Get("dev-1")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if got == nil || !got.Playing || !got.Shuffle {
			t.Fatalf("snapshot = %+v, want flags preserved", got)
		}
		if got.TrackID() != "t-1" {
			t.Errorf("track ID = %s, want t-1", got.TrackID())
		}
		if got.VolumePercent == nil || *got.VolumePercent != 60 {
			t.Errorf("volume = %v, want 60", got.VolumePercent)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		if err := repo.Save(&models.PlaybackSnapshot{DeviceID: "dev-1", Playing: true}); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if err := repo.Save(&models.PlaybackSnapshot{DeviceID: "dev-1", Playing: false}); err != nil {
			t.Fatalf("failed to overwrite snapshot: %v", err)
		}

		got, err := repo.Get("dev-1")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if got.Playing {
			t.Error("snapshot should reflect the latest save")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
			t.Fatalf("failed to count snapshots: %v", err)
		}
		if count != 1 {
			t.Errorf("got %d rows, want one per device", count)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		got, err := repo.Get("nope")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("snapshot = %+v, want nil for missing device", got)
		}
	})

	t.Run("SkipsWithoutDevice", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		if err := repo.Save(&models.PlaybackSnapshot{Playing: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
			t.Fatalf("failed to count snapshots: %v", err)
		}
		if count != 0 {
			t.Errorf("got %d rows, want none without a device ID", count)
		}
	})
}
