package player

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/splay/internal/services"
	"github.com/desertthunder/splay/internal/shared"
)

// Command is a discrete playback action produced by a key binding.
type Command int

const (
	TogglePlay Command = iota
	NextTrack
	PrevTrack
	ToggleShuffle
	VolumeUp
	VolumeDown
	ShowHelp
	ExitToSearch
	ExitProgram
)

func (c Command) String() string {
	switch c {
	case TogglePlay:
		return "toggle-play"
	case NextTrack:
		return "next-track"
	case PrevTrack:
		return "prev-track"
	case ToggleShuffle:
		return "toggle-shuffle"
	case VolumeUp:
		return "volume-up"
	case VolumeDown:
		return "volume-down"
	case ShowHelp:
		return "show-help"
	case ExitToSearch:
		return "exit-to-search"
	case ExitProgram:
		return "exit-program"
	default:
		return "unknown"
	}
}

// Outcome tells the session loop what to do after a command was handled.
type Outcome int

const (
	Continue Outcome = iota
	BackToSearch
	QuitProgram
)

// remoteCall identifies the service call an Action performs.
type remoteCall int

const (
	callNone remoteCall = iota
	callPause
	callResume
	callNext
	callPrevious
	callShuffle
	callVolume
)

// Action is a command resolved against the session state: which remote call
// to make, against which device, and what to do with the session afterwards.
// Planning reads state and must happen on the loop goroutine; the resulting
// Action is self-contained so Execute can run anywhere.
type Action struct {
	cmd     Command
	call    remoteCall
	device  string
	shuffle bool   // target shuffle state for callShuffle
	volume  int    // target percent for callVolume
	note    string // precondition failure surfaced instead of calling
	poll    bool   // force a poll even without a remote call
	outcome Outcome
}

// Result pairs an executed Action with its remote error, ready for Apply.
type Result struct {
	action Action
	err    error
}

// Dispatcher turns commands into remote calls and session state transitions.
//
// A command moves through three stages: Plan reads the session state and
// resolves the remote call, Execute performs only that call, and Apply
// commits the state transition. Plan and Apply touch SessionState and belong
// on the loop goroutine; Execute touches nothing but the service, so the
// loop can run it elsewhere while keeping state single-writer. Dispatch
// chains all three for synchronous callers.
//
// Command failures never end the session: the error is surfaced on the
// state's error line and the loop keeps running.
type Dispatcher struct {
	svc    services.Service
	state  *SessionState
	step   int
	logger *log.Logger
}

// NewDispatcher creates a dispatcher over svc and state. step is the volume
// increment per keypress.
func NewDispatcher(svc services.Service, state *SessionState, step int, logger *log.Logger) *Dispatcher {
	if step <= 0 {
		step = 5
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{svc: svc, state: state, step: step, logger: logger}
}

// Dispatch runs cmd through all three stages on the calling goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) Outcome {
	return d.Apply(d.Execute(ctx, d.Plan(cmd)))
}

// Plan resolves cmd against the current session state. State-changing
// commands target the snapshot's owning device; volume commands target the
// originally selected device, since the capability check was made against it.
func (d *Dispatcher) Plan(cmd Command) Action {
	action := Action{cmd: cmd}

	switch cmd {
	case TogglePlay:
		action.device = d.TargetDevice()
		if d.state.Snapshot.IsPlaying() {
			action.call = callPause
		} else {
			action.call = callResume
		}
	case NextTrack:
		action.call = callNext
		action.device = d.TargetDevice()
	case PrevTrack:
		action.call = callPrevious
		action.device = d.TargetDevice()
	case ToggleShuffle:
		action.call = callShuffle
		action.device = d.TargetDevice()
		action.shuffle = !d.state.Snapshot.ShuffleOn()
	case VolumeUp:
		action = d.planVolume(d.step)
	case VolumeDown:
		action = d.planVolume(-d.step)
	case ExitToSearch, ExitProgram:
		action.outcome = BackToSearch
		if cmd == ExitProgram {
			action.outcome = QuitProgram
		}
		// Pause is best-effort and skipped when the player already is.
		if snap := d.state.Snapshot; snap == nil || snap.IsPlaying() {
			action.call = callPause
			action.device = d.TargetDevice()
		}
	}

	return action
}

// planVolume resolves a volume step against the selected device's capability
// and the current shadow value.
func (d *Dispatcher) planVolume(delta int) Action {
	action := Action{cmd: VolumeUp}
	if delta < 0 {
		action.cmd = VolumeDown
	}

	device := d.state.Device()
	if !device.SupportsVolume {
		action.note = "Device does not support volume control"
		return action
	}

	base, ok := d.state.VolumeBase()
	if !ok {
		// No volume observed yet; poll now and let the shadow seed itself.
		action.poll = true
		return action
	}

	action.call = callVolume
	action.device = device.ID
	action.volume = ClampVolume(base + delta)
	return action
}

// Execute performs the Action's remote call and nothing else. It never
// touches session state, so it is safe to run off the loop goroutine while
// the loop keeps rendering.
func (d *Dispatcher) Execute(ctx context.Context, action Action) Result {
	var err error
	switch action.call {
	case callPause:
		err = d.svc.Pause(ctx, action.device)
	case callResume:
		err = d.svc.ResumePlayback(ctx, action.device)
	case callNext:
		err = d.svc.Next(ctx, action.device)
	case callPrevious:
		err = d.svc.Previous(ctx, action.device)
	case callShuffle:
		err = d.svc.SetShuffle(ctx, action.shuffle, action.device)
	case callVolume:
		err = d.svc.SetVolume(ctx, action.volume, action.device)
	}

	if err != nil {
		d.logger.Warn("playback command failed", "command", action.cmd, "device", action.device, "error", err)
	}
	return Result{action: action, err: err}
}

// Apply commits a Result's state transition and reports how the loop should
// proceed. Successful state-changing calls invalidate the cached snapshot
// and force an immediate poll so the display converges on real remote state.
func (d *Dispatcher) Apply(result Result) Outcome {
	action := result.action

	switch action.cmd {
	case ExitToSearch, ExitProgram:
		// A failed pause on the way out is logged and swallowed.
		return action.outcome
	case ShowHelp:
		// Rendering the overlay is the view's job.
		d.state.Dirty = true
		return Continue
	}

	if action.note != "" {
		d.state.RecordError(action.note)
		return Continue
	}
	if action.call == callNone {
		if action.poll {
			d.state.ForcePoll()
		}
		return Continue
	}
	if result.err != nil {
		d.state.RecordError("Cmd Error: " + result.err.Error())
		return Continue
	}

	if action.call == callVolume {
		d.state.SetShadowVolume(action.volume)
	} else {
		d.state.InvalidateSnapshot()
	}
	d.state.ForcePoll()
	d.state.ClearError()
	return Continue
}

// TargetDevice is where state-changing calls are sent: the device that owns
// the cached snapshot when known, otherwise the originally selected device.
func (d *Dispatcher) TargetDevice() string {
	if snap := d.state.Snapshot; snap != nil && snap.DeviceID != "" {
		return snap.DeviceID
	}
	return d.state.Device().ID
}

// ClampVolume bounds a volume percentage to [0, 100].
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
