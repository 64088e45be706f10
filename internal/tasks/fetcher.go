// package tasks implements bulk operations against the remote catalog.
//
// The core abstraction is [Fetcher], which turns the remote service's
// paginated collection reads into one validated, ordered track sequence.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/services"
	"github.com/desertthunder/splay/internal/shared"
	"golang.org/x/time/rate"
)

// pageSize is the item count requested per collection page.
const pageSize = 100

// CollectionStore persists fetched collections. Implemented by
// repositories.CollectionRepository; nil disables caching.
type CollectionStore interface {
	SaveCollection(collection *models.Collection) error
}

// Fetcher retrieves complete collections from the remote service.
//
// It owns the retry/backoff and item-validation policy: pages are retried a
// bounded number of times, malformed items are dropped, and an exhausted
// retry budget degrades to a partial result instead of an error.
type Fetcher struct {
	svc     services.Service
	store   CollectionStore
	limiter *rate.Limiter
	retry   RetryPolicy
	logger  *log.Logger
}

// FetcherOpts configures a Fetcher.
type FetcherOpts struct {
	Store   CollectionStore
	Limiter *rate.Limiter // defaults to 5 requests/second
	Retry   RetryPolicy   // defaults to DefaultRetry
	Logger  *log.Logger
}

// NewFetcher creates a Fetcher for the given service.
func NewFetcher(svc services.Service, opts FetcherOpts) *Fetcher {
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(5), 1)
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = DefaultRetry
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Fetcher{
		svc:     svc,
		store:   opts.Store,
		limiter: opts.Limiter,
		retry:   opts.Retry,
		logger:  opts.Logger,
	}
}

// Fetch retrieves every track in the collection, pages of pageSize at a time.
//
// Pagination continues while raw pages come back full; a page whose raw item
// count is short of pageSize marks the end, regardless of how many of its
// items survived validation. A page that exhausts its retry budget stops the
// fetch and returns the tracks accumulated so far.
func (f *Fetcher) Fetch(ctx context.Context, collectionID string, progress chan<- ProgressUpdate) (*models.Collection, error) {
	var meta *models.PlaylistSummary
	err := f.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		meta, err = f.svc.Playlist(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection metadata: %w", err)
	}

	sendProgress(progress, fetchMetaUpdate(meta.Name))

	collection := &models.Collection{
		ID:    meta.ID,
		Name:  meta.Name,
		Owner: meta.Owner,
		URI:   meta.URI,
	}

	offset := 0
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return collection, err
		}

		var page *services.CollectionPage
		attempt := 0
		err := f.retry.Do(ctx, func(ctx context.Context) error {
			attempt++
			if attempt > 1 {
				sendProgress(progress, retryPageUpdate(attempt, f.retry.Attempts))
			}
			var err error
			page, err = f.svc.CollectionPage(ctx, collectionID, offset, pageSize)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return collection, ctx.Err()
			}
			// Partial-result policy: keep what we have.
			f.logger.Errorf("giving up on page at offset %d after %d attempts: %v", offset, f.retry.Attempts, err)
			break
		}

		for _, track := range page.Items {
			if !track.Valid() {
				f.logger.Debugf("skipping invalid track item at offset %d", offset)
				continue
			}
			collection.Tracks = append(collection.Tracks, track)
		}

		sendProgress(progress, fetchPageUpdate(len(collection.Tracks), page.Total))

		// Continuation is driven by the raw item count: a short or empty raw
		// page is the end even when every surviving item was invalid.
		if len(page.Items) < pageSize {
			break
		}
		offset += pageSize
	}

	f.logger.Infof("fetched %d valid tracks from collection %s", len(collection.Tracks), collectionID)
	sendProgress(progress, fetchDoneUpdate(len(collection.Tracks)))

	if f.store != nil && len(collection.Tracks) > 0 {
		sendProgress(progress, ProgressUpdate{Phase: CacheWrite, Message: "Caching collection..."})
		if err := f.store.SaveCollection(collection); err != nil {
			// Caching is best-effort; a failed write never fails the fetch.
			f.logger.Warnf("failed to cache collection %s: %v", collectionID, err)
		}
	}

	return collection, nil
}

// sendProgress delivers an update without blocking when no one is listening.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
