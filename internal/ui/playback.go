package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/splay/internal/formatter"
	"github.com/desertthunder/splay/internal/player"
	"github.com/desertthunder/splay/internal/shared"
)

func pollInterval(cfg shared.PlaybackConfig) time.Duration {
	return time.Duration(cfg.PollIntervalMS) * time.Millisecond
}

func tickRate(cfg shared.PlaybackConfig) time.Duration {
	return time.Duration(cfg.TickRateMS) * time.Millisecond
}

// startSession starts playback of the fetched collection on the selected
// device and switches to the playback view.
func (m *Model) startSession() (tea.Model, tea.Cmd) {
	m.dispatcher = player.NewDispatcher(m.svc, m.session, m.cfg.VolumeStep, m.logger)
	m.showHelp = false
	m.status = ""
	m.view = PlaybackView
	m.renderFrame()

	device := m.session.Device()
	uri := m.collection.URI
	shuffle := m.cfg.ShuffleAtStart

	return m, tea.Batch(tea.ClearScreen, func() tea.Msg {
		if err := m.svc.StartPlayback(m.ctx, device.ID, uri, ""); err != nil {
			return sessionReadyMsg{err: err}
		}
		switch shuffle {
		case shared.ShuffleOn, shared.ShuffleOff:
			// Best-effort; the next poll reports the real shuffle state.
			if err := m.svc.SetShuffle(m.ctx, shuffle == shared.ShuffleOn, device.ID); err != nil {
				m.logger.Warn("initial shuffle setting failed", "device", device.ID, "error", err)
			}
		}
		return sessionReadyMsg{}
	})
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(tickRate(m.cfg), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// handleTick is one turn of the session loop: poll if due and nothing is in
// flight, rebuild the frame if state changed, schedule the next tick.
func (m *Model) handleTick() (tea.Model, tea.Cmd) {
	if m.view != PlaybackView || m.session == nil {
		return m, nil
	}

	if !m.inFlight && m.session.PollDue(time.Now()) {
		m.inFlight = true
		return m, tea.Batch(m.pollPlayback(), m.scheduleTick())
	}

	if m.session.Dirty {
		m.renderFrame()
	}
	return m, m.scheduleTick()
}

func (m *Model) pollPlayback() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.svc.CurrentPlayback(m.ctx)
		return pollResultMsg{snapshot: snapshot, err: err}
	}
}

func (m *Model) handlePollResult(msg pollResultMsg) tea.Cmd {
	m.inFlight = false
	if m.session == nil {
		return nil
	}

	now := time.Now()
	if msg.err != nil {
		m.session.ApplyPollError(msg.err, now)
	} else {
		m.session.ApplySnapshot(msg.snapshot, now)
		if m.snapshots != nil && msg.snapshot != nil {
			if err := m.snapshots.Save(msg.snapshot); err != nil {
				m.logger.Warn("failed to persist snapshot", "error", err)
			}
		}
	}

	if cmd := m.takePendingExit(); cmd != nil {
		return cmd
	}
	if m.session.Dirty {
		m.renderFrame()
	}
	return nil
}

func (m *Model) handlePlaybackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}

	var cmd player.Command
	switch msg.String() {
	case "?":
		m.showHelp = !m.showHelp
		m.session.Dirty = true
		m.renderFrame()
		return m, nil
	case "enter", "p":
		cmd = player.TogglePlay
	case "l", "right":
		cmd = player.NextTrack
	case "h", "left":
		cmd = player.PrevTrack
	case "k", "up":
		cmd = player.VolumeUp
	case "j", "down":
		cmd = player.VolumeDown
	case "s":
		cmd = player.ToggleShuffle
	case "q", "esc":
		cmd = player.ExitToSearch
	case "x", "ctrl+c":
		cmd = player.ExitProgram
	default:
		return m, nil
	}

	// One remote call at a time; keys pressed mid-call are dropped. Exits
	// are queued instead and run as soon as the outstanding call returns.
	if m.inFlight {
		if cmd == player.ExitToSearch || cmd == player.ExitProgram {
			m.pendingExit = cmd
			m.exitQueued = true
		}
		return m, nil
	}

	return m, m.dispatchCommand(cmd)
}

// dispatchCommand plans cmd against the session state here on the loop, then
// hands the self-contained action to a tea.Cmd that performs only the remote
// call. The result comes back as a commandDoneMsg and is applied in Update,
// so every SessionState mutation stays on the loop goroutine.
func (m *Model) dispatchCommand(cmd player.Command) tea.Cmd {
	action := m.dispatcher.Plan(cmd)
	dispatcher := m.dispatcher
	ctx := m.ctx
	m.inFlight = true
	return func() tea.Msg {
		return commandDoneMsg{result: dispatcher.Execute(ctx, action)}
	}
}

// takePendingExit dispatches a queued exit command, if any.
func (m *Model) takePendingExit() tea.Cmd {
	if !m.exitQueued || m.dispatcher == nil {
		return nil
	}
	cmd := m.pendingExit
	m.exitQueued = false
	return m.dispatchCommand(cmd)
}

func (m *Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	m.inFlight = false
	if m.dispatcher == nil {
		return m, nil
	}

	switch m.dispatcher.Apply(msg.result) {
	case player.BackToSearch:
		m.resetSession()
		m.status = ""
		m.view = SearchView
		return m, tea.Batch(tea.ClearScreen, textinput.Blink)
	case player.QuitProgram:
		return m, tea.Quit
	}

	if cmd := m.takePendingExit(); cmd != nil {
		return m, cmd
	}
	if m.session != nil && m.session.Dirty {
		m.renderFrame()
	}
	return m, nil
}

// abortSession ends the playback session without a user command, pausing
// playback best-effort on the way back to search. The pause is planned here
// while the session state is still reachable; the goroutine only makes the
// remote call.
func (m *Model) abortSession() (tea.Model, tea.Cmd) {
	dispatcher := m.dispatcher
	ctx := m.ctx
	var pause player.Action
	if dispatcher != nil {
		pause = dispatcher.Plan(player.ExitToSearch)
	}
	m.resetSession()
	m.view = SearchView

	return m, tea.Batch(tea.ClearScreen, textinput.Blink, func() tea.Msg {
		if dispatcher != nil {
			dispatcher.Execute(ctx, pause)
		}
		return nil
	})
}

func (m *Model) resetSession() {
	m.session = nil
	m.dispatcher = nil
	m.collection = nil
	m.frame = ""
	m.inFlight = false
	m.showHelp = false
	m.exitQueued = false
}

// renderFrame rebuilds the cached playback frame and clears the redraw flag.
func (m *Model) renderFrame() {
	if m.session == nil {
		m.frame = ""
		return
	}

	width := m.session.Cols
	if width <= 0 {
		width = player.MinCols
	}

	var b strings.Builder
	snap := m.session.Snapshot
	device := m.session.Device()

	b.WriteString(styles.title.Render(formatter.Truncate("splay · "+m.collection.Name, width)))
	b.WriteString("\n\n")

	if snap == nil || snap.Track == nil {
		b.WriteString(styles.dim.Render("Waiting for playback..."))
		b.WriteString("\n\n\n")
	} else {
		icon := "⏸"
		if snap.Playing {
			icon = "▶"
		}
		b.WriteString(formatter.Truncate(fmt.Sprintf("%s  %s", icon, snap.Track.Title), width))
		b.WriteString("\n")
		b.WriteString(styles.dim.Render(formatter.Truncate(snap.Track.ArtistLine(), width)))
		b.WriteString("\n")
		b.WriteString(styles.dim.Render(formatter.Truncate(formatter.AlbumLine(*snap.Track), width)))
		b.WriteString("\n")
		if snap.ProgressMS != nil && snap.DurationMS != nil {
			b.WriteString(styles.dim.Render(fmt.Sprintf("%s / %s",
				formatter.Duration(*snap.ProgressMS), formatter.Duration(*snap.DurationMS))))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.dim.Render(formatter.Truncate(m.sessionStatus(device.Name), width)))
	b.WriteString("\n")

	if m.session.LastErr != "" {
		b.WriteString(styles.err.Render(m.session.LastErr))
	}
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}

	m.frame = b.String()
	m.session.Dirty = false
}

// sessionStatus is the device / shuffle / volume line under the track info.
func (m *Model) sessionStatus(deviceName string) string {
	shuffle := "off"
	if m.session.Snapshot.ShuffleOn() {
		shuffle = "on"
	}

	volume := "n/a"
	if v, ok := m.session.VolumeBase(); ok {
		volume = fmt.Sprintf("%d%%", v)
	}

	name := deviceName
	if snap := m.session.Snapshot; snap != nil && snap.DeviceName != "" {
		name = snap.DeviceName
	}
	return fmt.Sprintf("%s · shuffle %s · volume %s", name, shuffle, volume)
}
