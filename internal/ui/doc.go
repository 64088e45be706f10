// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks the playback workflow as a sequence of views:
//  1. [SearchView] : Enter a playlist search query ("0" lists your own playlists)
//  2. [PlaylistListView] : Browse and select a playlist
//  3. [DeviceListView] : Pick the playback device
//  4. [FetchView] : Watch the full track list being fetched page by page
//  5. [PlaybackView] : Drive playback with single-key commands
//
// The [Model] implements bubbletea's standard Init/Update/View pattern. The
// playback view runs a tick-driven session loop: the playback snapshot is
// polled on an interval, at most one remote call is in flight at a time, and
// the rendered frame is cached and rebuilt only when session state changed.
//
// Keyboard navigation uses vim-style bindings (h/j/k/l plus arrows) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
