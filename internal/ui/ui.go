package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/splay/internal/models"
	"github.com/desertthunder/splay/internal/player"
	"github.com/desertthunder/splay/internal/repositories"
	"github.com/desertthunder/splay/internal/services"
	"github.com/desertthunder/splay/internal/shared"
	"github.com/desertthunder/splay/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	PlaylistListView
	DeviceListView
	FetchView
	PlaybackView
)

// searchLimit caps how many playlists a search returns.
const searchLimit = 20

// ownPlaylistsQuery lists the user's own playlists instead of searching.
const ownPlaylistsQuery = "0"

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	svc       services.Service
	fetcher   *tasks.Fetcher
	snapshots *repositories.SnapshotRepository // nil disables snapshot persistence
	cfg       shared.PlaybackConfig
	logger    *log.Logger

	view   ViewState
	width  int
	height int
	keys   keyMap
	help   help.Model
	status string
	err    error

	searchInput  textinput.Model
	playlistList list.Model
	playlists    []models.PlaylistSummary
	deviceList   list.Model
	devices      []models.Device

	selected     models.PlaylistSummary
	collection   *models.Collection
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	fetched      *models.Collection // written by the fetch goroutine before the channel closes
	fetchErr     error

	session     *player.SessionState
	dispatcher  *player.Dispatcher
	frame       string // cached playback frame, rebuilt only when dirty
	inFlight    bool   // at most one remote call from the session loop
	pendingExit player.Command
	exitQueued  bool // an exit arrived while a call was in flight
	showHelp    bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, svc services.Service, fetcher *tasks.Fetcher, snapshots *repositories.SnapshotRepository, cfg shared.PlaybackConfig, logger *log.Logger) *Model {
	input := textinput.New()
	input.Placeholder = "Search playlists (0 for your own)"
	input.CharLimit = 120
	input.Focus()

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Model{
		ctx:         ctx,
		svc:         svc,
		fetcher:     fetcher,
		snapshots:   snapshots,
		cfg:         cfg,
		logger:      logger,
		view:        SearchView,
		help:        help.New(),
		keys:        newKeyMap(),
		searchInput: input,
	}
}

// Init puts focus on the search input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case DeviceListView:
			return m.handleDeviceListKeys(msg)
		case FetchView:
			return m.handleFetchKeys(msg)
		case PlaybackView:
			return m.handlePlaybackKeys(msg)
		}

	case searchResultMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Search failed: %v", msg.err))
			return m, nil
		}
		if len(msg.playlists) == 0 {
			m.status = styles.warn.Render("No playlists found")
			return m, nil
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-6)
		m.status = ""
		m.view = PlaylistListView
		return m, nil

	case devicesMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Device listing failed: %v", msg.err))
			m.view = PlaylistListView
			return m, nil
		}
		if len(msg.devices) == 0 {
			m.status = styles.warn.Render(fmt.Sprintf("%v: open Spotify on a device and try again", shared.ErrNoDevices))
			m.view = PlaylistListView
			return m, nil
		}
		m.devices = msg.devices
		items := make([]list.Item, len(msg.devices))
		for i, dev := range msg.devices {
			items[i] = deviceItem{device: dev}
		}
		m.deviceList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.deviceList.Title = fmt.Sprintf("Play '%s' on", m.selected.Name)
		m.deviceList.SetSize(m.width-4, m.height-6)
		m.status = ""
		m.view = DeviceListView
		return m, nil

	case fetchProgressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case fetchDoneMsg:
		return m.handleFetchDone(msg)

	case sessionReadyMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not start playback: %v", msg.err))
			m.resetSession()
			m.view = DeviceListView
			return m, nil
		}
		return m, m.scheduleTick()

	case tickMsg:
		return m.handleTick()

	case pollResultMsg:
		return m, m.handlePollResult(msg)

	case commandDoneMsg:
		return m.handleCommandDone(msg)
	}

	return m.updateChildren(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case PlaylistListView:
		return m.renderList(m.playlistList)
	case DeviceListView:
		return m.renderList(m.deviceList)
	case FetchView:
		return m.renderFetch()
	case PlaybackView:
		return m.frame
	default:
		return ""
	}
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	if m.playlistList.Width() != 0 {
		m.playlistList.SetSize(msg.Width-4, msg.Height-6)
	}
	if m.deviceList.Width() != 0 {
		m.deviceList.SetSize(msg.Width-4, msg.Height-6)
	}

	if m.view == PlaybackView && m.session != nil {
		m.session.Resize(msg.Height, msg.Width)
		if m.session.TooSmall() {
			m.status = styles.warn.Render(fmt.Sprintf("%v (needs at least %d columns x %d rows)", shared.ErrTerminalTooSmall, player.MinCols, player.MinRows))
			return m.abortSession()
		}
		m.renderFrame()
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		query := m.searchInput.Value()
		if query == "" {
			m.status = styles.warn.Render("Enter a search query")
			return m, nil
		}
		m.status = styles.dim.Render("Searching...")
		return m, m.searchPlaylists(query)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "x":
		return m, tea.Quit
	case "q", "esc":
		m.status = ""
		m.view = SearchView
		return m, textinput.Blink
	case "enter":
		if selected, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected = selected.playlist
			m.status = styles.dim.Render("Loading devices...")
			return m, m.fetchDevices()
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleDeviceListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "x":
		return m, tea.Quit
	case "q", "esc":
		m.status = ""
		m.view = PlaylistListView
		return m, nil
	case "enter":
		if selected, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			return m.startFetch(selected.device)
		}
	}

	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m *Model) handleFetchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "x":
		return m, tea.Quit
	}
	// The fetch runs to completion; other keys are ignored.
	return m, nil
}

func (m *Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	m.progressChan = nil
	if msg.err != nil {
		m.status = styles.err.Render(fmt.Sprintf("Fetch failed: %v", msg.err))
		m.view = DeviceListView
		return m, nil
	}
	if msg.collection == nil || len(msg.collection.Tracks) == 0 {
		m.status = styles.warn.Render(fmt.Sprintf("'%s' has no playable tracks: %v", m.selected.Name, shared.ErrEmptyCollection))
		m.view = PlaylistListView
		return m, nil
	}
	m.collection = msg.collection
	return m.startSession()
}

func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case DeviceListView:
		m.deviceList, cmd = m.deviceList.Update(msg)
	}
	return m, cmd
}

func (m *Model) searchPlaylists(query string) tea.Cmd {
	return func() tea.Msg {
		if query == ownPlaylistsQuery {
			playlists, err := m.svc.CurrentUserPlaylists(m.ctx, searchLimit)
			return searchResultMsg{playlists: playlists, err: err}
		}
		playlists, err := m.svc.SearchPlaylists(m.ctx, query, searchLimit)
		return searchResultMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.svc.Devices(m.ctx)
		return devicesMsg{devices: devices, err: err}
	}
}

// startFetch kicks off the full collection fetch for the selected playlist.
func (m *Model) startFetch(device models.Device) (tea.Model, tea.Cmd) {
	m.session = player.NewSessionState(device, pollInterval(m.cfg))
	m.session.Resize(m.height, m.width)
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.progress = tasks.ProgressUpdate{}
	m.status = ""
	m.view = FetchView

	progress := m.progressChan
	go func() {
		// The writes are visible to the loop once the channel closes.
		m.fetched, m.fetchErr = m.fetcher.Fetch(m.ctx, m.selected.ID, progress)
		close(progress)
	}()
	return m, m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return fetchDoneMsg{collection: m.fetched, err: m.fetchErr}
		}
		return fetchProgressMsg(update)
	}
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("splay")
	prompt := "Search for a playlist, or enter 0 to list your own:"
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.exit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s", title, prompt, m.searchInput.View(), m.statusLine(), helpView)
}

func (m *Model) renderList(l list.Model) string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", l.View(), m.statusLine(), helpView)
}

func (m *Model) renderFetch() string {
	title := styles.title.Render(fmt.Sprintf("Fetching '%s'", m.selected.Name))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchMeta:
		phase = "Loading playlist details..."
	case tasks.FetchPage:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RetryPage:
		phase = styles.warn.Render(fmt.Sprintf("Retrying page (%d/%d)", m.progress.Step, m.progress.Total))
	case tasks.CacheWrite:
		phase = "Caching collection..."
	case tasks.FetchDone:
		phase = styles.ok.Render("Done")
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.dim.Render(m.progress.Message))
}

func (m *Model) statusLine() string {
	if m.status == "" {
		return ""
	}
	return m.status
}
