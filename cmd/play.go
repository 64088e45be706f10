package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/splay/internal/repositories"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/desertthunder/splay/internal/tasks"
	"github.com/desertthunder/splay/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play launches the interactive search-and-playback TUI.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	// Logs go to a file so they don't tear the TUI.
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(fileLogger, log.DebugLevel)
	}
	fileLogger = shared.WithLogger(fileLogger, "session", shared.GenerateID())

	opts := tasks.FetcherOpts{Logger: fileLogger}
	var snapshots *repositories.SnapshotRepository

	if !cmd.Bool("no-cache") {
		db, err := r.openDatabase()
		if err != nil {
			// The session works without a cache; it just won't persist.
			fileLogger.Warnf("cache unavailable: %v", err)
		} else {
			defer db.Close()
			opts.Store = repositories.NewCollectionRepository(db)
			snapshots = repositories.NewSnapshotRepository(db)
		}
	}

	fetcher := tasks.NewFetcher(r.svc, opts)
	model := ui.NewModel(ctx, r.svc, fetcher, snapshots, r.config.Playback, fileLogger)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
