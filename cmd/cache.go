package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/splay/internal/formatter"
	"github.com/desertthunder/splay/internal/repositories"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheList lists locally cached collections.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewCollectionRepository(db).List()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No cached collections.\n")
		r.writePlain("Collections are cached automatically when fetched by 'splay play'.\n")
		return nil
	}

	r.writePlain("Cached collections:\n\n")
	for i, rec := range records {
		r.writePlain("%d. %s\n", i+1, rec.Name)
		if rec.Owner != "" {
			r.writePlain("   Owner: %s\n", rec.Owner)
		}
		r.writePlain("   ID: %s\n", rec.ID)
		r.writePlain("   Tracks: %d\n", rec.TrackCount)
		r.writePlain("   Fetched: %s\n", rec.FetchedAt.Format("2006-01-02 15:04"))
		r.writePlain("\n")
	}

	return nil
}

// CacheShow prints or exports a cached collection's tracks.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	collectionID := cmd.StringArg("id")
	if collectionID == "" {
		return fmt.Errorf("%w: a collection ID is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	collection, err := repositories.NewCollectionRepository(db).Get(collectionID)
	if err != nil {
		return err
	}

	data, err := formatter.Export(collection, cmd.String("format"))
	if err != nil {
		return err
	}

	if outputFile := cmd.String("output"); outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		r.writePlain("✓ Exported %s (%d tracks) to %s\n", collection.Name, len(collection.Tracks), outputFile)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// CacheClear removes one cached collection, or all of them.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewCollectionRepository(db)

	if collectionID := cmd.String("id"); collectionID != "" {
		if err := repo.Delete(collectionID); err != nil {
			return err
		}
		r.writePlain("✓ Removed cached collection %s\n", collectionID)
		return nil
	}

	if err := repo.Clear(); err != nil {
		return err
	}
	r.writePlain("✓ Cache cleared\n")
	return nil
}
