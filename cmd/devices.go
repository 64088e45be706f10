package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/splay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Devices lists the playback devices currently visible to the user.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	r.logger.Info("listing playback devices")

	devices, err := r.svc.Devices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, cmd.Bool("pretty"))
	}

	if len(devices) == 0 {
		r.writePlain("✗ %v\n", shared.ErrNoDevices)
		r.writePlain("Open Spotify on a phone, desktop or speaker and try again.\n")
		return nil
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		marker := " "
		if d.Active {
			marker = "*"
		}
		r.writePlain("%s %d. %s (%s)\n", marker, i+1, d.Name, d.Type)
		r.writePlain("     ID: %s\n", d.ID)
		if d.SupportsVolume && d.VolumePercent != nil {
			r.writePlain("     Volume: %d%%\n", *d.VolumePercent)
		} else if !d.SupportsVolume {
			r.writePlain("     Volume: not controllable\n")
		}
		r.writePlain("\n")
	}

	return nil
}
