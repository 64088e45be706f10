package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/services"
	splaytest "github.com/desertthunder/splay/internal/testing"
	"golang.org/x/time/rate"
)

// pagedSource serves tracks out of a fixed slice in pageSize chunks, with
// optional per-offset failure injection.
type pagedSource struct {
	tracks   []models.Track
	failures map[int]int // offset -> remaining failures
	calls    int
}

func (p *pagedSource) page(_ context.Context, _ string, offset, limit int) (*services.CollectionPage, error) {
	p.calls++
	if remaining := p.failures[offset]; remaining > 0 {
		p.failures[offset]--
		return nil, errors.New("network error")
	}

	end := offset + limit
	if end > len(p.tracks) {
		end = len(p.tracks)
	}
	items := []models.Track{}
	if offset < len(p.tracks) {
		items = p.tracks[offset:end]
	}
	return &services.CollectionPage{Items: items, Total: len(p.tracks)}, nil
}

func fastFetcher(svc services.Service, store CollectionStore) *Fetcher {
	return NewFetcher(svc, FetcherOpts{
		Store:   store,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		Retry:   RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
	})
}

type memStore struct {
	saved []*models.Collection
	err   error
}

func (s *memStore) SaveCollection(c *models.Collection) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, c)
	return nil
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Concatenates Pages In Order", func(t *testing.T) {
		source := &pagedSource{tracks: splaytest.MakeTracks(250)}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(collection.Tracks) != 250 {
			t.Fatalf("expected 250 tracks, got %d", len(collection.Tracks))
		}
		for i, track := range collection.Tracks {
			if track.ID != fmt.Sprintf("track-%d", i) {
				t.Fatalf("track %d out of order: %s", i, track.ID)
			}
		}
		// 100 + 100 + 50: the short third page ends pagination.
		if source.calls != 3 {
			t.Errorf("expected 3 page fetches, got %d", source.calls)
		}
	})

	t.Run("Drops Invalid Items", func(t *testing.T) {
		tracks := splaytest.MakeTracks(4)
		tracks[1] = models.Track{}                     // nil track in raw item
		tracks[2] = models.Track{ID: "x", Title: "no"} // missing artists
		source := &pagedSource{tracks: tracks}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(collection.Tracks) != 2 {
			t.Fatalf("expected 2 valid tracks, got %d", len(collection.Tracks))
		}
		if collection.Tracks[0].ID != "track-0" || collection.Tracks[1].ID != "track-3" {
			t.Errorf("unexpected surviving tracks: %+v", collection.Tracks)
		}
	})

	t.Run("Full Page Of Invalid Items Continues Pagination", func(t *testing.T) {
		// First raw page is full but yields zero valid tracks; the fetch must
		// still advance to the next page rather than treat it as the end.
		tracks := make([]models.Track, 100)
		tracks = append(tracks, splaytest.MakeTracks(10)...)
		source := &pagedSource{tracks: tracks}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if source.calls != 2 {
			t.Errorf("expected pagination to continue past the invalid page, got %d calls", source.calls)
		}
		if len(collection.Tracks) != 10 {
			t.Errorf("expected 10 valid tracks, got %d", len(collection.Tracks))
		}
	})

	t.Run("Retries Then Succeeds Without Duplicates", func(t *testing.T) {
		source := &pagedSource{
			tracks:   splaytest.MakeTracks(150),
			failures: map[int]int{100: 2},
		}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(collection.Tracks) != 150 {
			t.Fatalf("expected 150 tracks, got %d", len(collection.Tracks))
		}

		seen := map[string]bool{}
		for _, track := range collection.Tracks {
			if seen[track.ID] {
				t.Fatalf("duplicate track %s", track.ID)
			}
			seen[track.ID] = true
		}
	})

	t.Run("Exhausted Retries Returns Partial Result", func(t *testing.T) {
		source := &pagedSource{
			tracks:   splaytest.MakeTracks(250),
			failures: map[int]int{200: 3},
		}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("partial result must not propagate an error, got %v", err)
		}
		if len(collection.Tracks) != 200 {
			t.Errorf("expected the 200 tracks from successful pages, got %d", len(collection.Tracks))
		}
	})

	t.Run("Honors Rate Limit Wait", func(t *testing.T) {
		first := true
		svc := &splaytest.MockService{
			CollectionPageFn: func(ctx context.Context, id string, offset, limit int) (*services.CollectionPage, error) {
				if first {
					first = false
					return nil, &services.APIError{Status: 429, RetryAfter: 20 * time.Millisecond}
				}
				return &services.CollectionPage{Items: splaytest.MakeTracks(1), Total: 1}, nil
			},
		}

		start := time.Now()
		collection, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("expected server-advised wait before retry, elapsed %v", elapsed)
		}
		if len(collection.Tracks) != 1 {
			t.Errorf("expected eventual success, got %d tracks", len(collection.Tracks))
		}
	})

	t.Run("Caches Result", func(t *testing.T) {
		source := &pagedSource{tracks: splaytest.MakeTracks(5)}
		svc := &splaytest.MockService{CollectionPageFn: source.page}
		store := &memStore{}

		if _, err := fastFetcher(svc, store).Fetch(ctx, "pl1", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.saved) != 1 || len(store.saved[0].Tracks) != 5 {
			t.Fatalf("expected collection cached, got %+v", store.saved)
		}
	})

	t.Run("Cache Failure Is Non-Fatal", func(t *testing.T) {
		source := &pagedSource{tracks: splaytest.MakeTracks(5)}
		svc := &splaytest.MockService{CollectionPageFn: source.page}
		store := &memStore{err: errors.New("disk full")}

		collection, err := fastFetcher(svc, store).Fetch(ctx, "pl1", nil)
		if err != nil {
			t.Fatalf("cache failure must not fail the fetch: %v", err)
		}
		if len(collection.Tracks) != 5 {
			t.Errorf("expected tracks despite cache failure, got %d", len(collection.Tracks))
		}
	})

	t.Run("Metadata Failure Is Fatal", func(t *testing.T) {
		svc := &splaytest.MockService{
			PlaylistFn: func(ctx context.Context, id string) (*models.PlaylistSummary, error) {
				return nil, errors.New("not found")
			},
		}

		if _, err := fastFetcher(svc, nil).Fetch(ctx, "missing", nil); err == nil {
			t.Fatal("expected error when metadata fetch fails")
		}
	})

	t.Run("Reports Progress", func(t *testing.T) {
		source := &pagedSource{tracks: splaytest.MakeTracks(150)}
		svc := &splaytest.MockService{CollectionPageFn: source.page}

		progress := make(chan ProgressUpdate, 32)
		if _, err := fastFetcher(svc, nil).Fetch(ctx, "pl1", progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 || phases[0] != FetchMeta {
			t.Fatalf("expected FetchMeta first, got %v", phases)
		}
		if phases[len(phases)-1] != FetchDone {
			t.Errorf("expected FetchDone last, got %v", phases)
		}
	})
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeds First Try", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.Do(ctx, func(context.Context) error {
			calls++
			return nil
		})
		if err != nil || calls != 1 {
			t.Errorf("expected single successful call, got calls=%d err=%v", calls, err)
		}
	})

	t.Run("Exhausts Budget", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryPolicy{Attempts: 3, Backoff: time.Millisecond}.Do(ctx, func(context.Context) error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("expected last error, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
	})

	t.Run("Respects Context Cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := RetryPolicy{Attempts: 3, Backoff: time.Hour}.Do(cancelled, func(context.Context) error {
			return errors.New("fail")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
