package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/splay/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = deviceItem{}
)

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistSummary
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Owner)
	}
	return desc
}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	if i.device.Active {
		return fmt.Sprintf("%s (active)", i.device.Name)
	}
	return i.device.Name
}

func (i deviceItem) Description() string {
	desc := i.device.Type
	if !i.device.SupportsVolume {
		desc = fmt.Sprintf("%s • no volume control", desc)
	} else if i.device.VolumePercent != nil {
		desc = fmt.Sprintf("%s • volume %d%%", desc, *i.device.VolumePercent)
	}
	return desc
}
