package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a one-shot playlist search and prints the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	mine := cmd.Bool("mine") || query == "0"
	limit := cmd.Int("limit")

	if query == "" && !mine {
		return fmt.Errorf("%w: a search query is required (or --mine)", shared.ErrMissingArgument)
	}

	var playlists []models.PlaylistSummary
	var err error
	if mine {
		r.logger.Info("listing your playlists", "limit", limit)
		playlists, err = r.svc.CurrentUserPlaylists(ctx, int(limit))
	} else {
		r.logger.Info("searching playlists", "query", query, "limit", limit)
		playlists, err = r.svc.SearchPlaylists(ctx, query, int(limit))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found.\n")
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Owner != "" {
			r.writePlain("   Owner: %s\n", p.Owner)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}
