package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/display"
	"github.com/MAGLaboratory/security-monitor/internal/journal"
	"github.com/MAGLaboratory/security-monitor/internal/layout"
	"github.com/MAGLaboratory/security-monitor/internal/player"
	"github.com/MAGLaboratory/security-monitor/internal/splitter"
)

// recentEventLimit caps the journal digest in a checkup reply.
const recentEventLimit = 5

// Journal is the optional persisted-event source consulted for checkup
// replies. *journal.Journal satisfies it.
type Journal interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	CountSince(ctx context.Context, kind string, since time.Time) (int, error)
}

// State is the monitor's top-level state.
type State int32

// Monitor states. PLAYING is the initial state.
const (
	StatePlaying State = iota
	StateStopped
	StateRestart
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StateStopped:
		return "STOPPED"
	case StateRestart:
		return "RESTART"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Logger is the logging interface the monitor needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config describes the monitor.
type Config struct {
	// Name identifies this monitor in checkup replies.
	Name string

	// URLs are the tile sources.
	URLs []string

	// Division is the visible grid.
	Division layout.Division

	// RefreshPeriod, JoinTimeout, and PlayTimeout are handed to each
	// splitter instance.
	RefreshPeriod int
	JoinTimeout   time.Duration
	PlayTimeout   time.Duration

	// Tuning is passed through to every engine.
	Tuning player.Tuning

	// NewPlayer constructs engine handles.
	NewPlayer player.Factory

	// MotionField names the JSON field checked in motion event
	// payloads; a non-zero value latches the motion trigger.
	MotionField string

	// Journal, if set, enriches checkup replies with persisted event
	// counts and a digest of the newest entries.
	Journal Journal

	// OnStateChange, if set, is called on every state transition.
	OnStateChange func(from, to State)

	// OnRotate and OnEngineFailure are forwarded to each splitter.
	OnRotate        func(slot int, forcedKill bool)
	OnEngineFailure func(slot int, fatal bool)
}

// Top is the top-level state machine.
type Top struct {
	cfg   Config
	log   Logger
	power display.Power

	// Flags shared with the idle timer and command handlers.
	Flags *Flags

	// idleWait is the control-loop pause while not playing.
	idleWait time.Duration

	restartReq atomic.Bool
	current    atomic.Pointer[splitter.Signal]
	state      atomic.Int32
	rotations  atomic.Uint64
	started    time.Time
}

// New creates the monitor.
func New(cfg Config, power display.Power, log Logger) (*Top, error) {
	tiles := cfg.Division.Tiles()
	if tiles <= 0 {
		return nil, fmt.Errorf("monitor: %w", layout.ErrInvalidDivision)
	}
	if len(cfg.URLs) < tiles {
		return nil, fmt.Errorf("monitor: %w", splitter.ErrNotEnoughSources)
	}
	if cfg.NewPlayer == nil {
		return nil, fmt.Errorf("monitor: %w", splitter.ErrNoFactory)
	}
	t := &Top{
		cfg:      cfg,
		log:      log,
		power:    power,
		Flags:    NewFlags(),
		idleWait: 1 * time.Second,
	}
	t.state.Store(int32(StatePlaying))
	return t, nil
}

// State returns the current top-level state.
func (t *Top) State() State {
	return State(t.state.Load())
}

// Rotations returns the total rotations completed across all epochs.
func (t *Top) Rotations() uint64 {
	return t.rotations.Load()
}

// MonOn requests the display active. Idempotent; callable from any
// goroutine.
func (t *Top) MonOn() {
	if t.Flags.ScreenOff() {
		t.log.Info("turning monitor on")
		t.Flags.SetScreenOff(false)
	}
}

// MonOff requests the display blanked and stops the current playback
// epoch. Idempotent; callable from any goroutine.
func (t *Top) MonOff() {
	if !t.Flags.ScreenOff() {
		t.log.Info("turning monitor off")
		t.Flags.SetScreenOff(true)
		t.stopCurrent()
	}
}

// Restart tears the current playback epoch down and starts a fresh
// one. Callable from any goroutine.
func (t *Top) Restart() {
	t.log.Info("monitor restart requested")
	t.restartReq.Store(true)
	t.stopCurrent()
}

// AutoEnable re-enables automatic idle control.
func (t *Top) AutoEnable() {
	t.log.Info("automatic control enabled")
	t.Flags.SetAuto(true)
}

// Force disables automatic idle control and forces the display state.
func (t *Top) Force(on bool) {
	t.log.Info("monitor state forced", "on", on)
	t.Flags.SetAuto(false)
	if on {
		t.MonOn()
	} else {
		t.MonOff()
	}
}

// HandleMotion inspects a motion event payload and latches the motion
// trigger when the configured field is non-zero.
func (t *Top) HandleMotion(payload []byte) {
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		t.log.Debug("ignoring malformed motion payload", "error", err)
		return
	}
	v, ok := data[t.cfg.MotionField]
	if !ok {
		return
	}
	if n, ok := v.(float64); ok && n != 0 {
		t.log.Info("motion detected")
		t.Flags.TriggerMotion()
	}
}

// checkupReport is the liveness summary published on checkup requests.
type checkupReport struct {
	Name      string          `json:"name"`
	State     string          `json:"state"`
	Division  string          `json:"division"`
	Auto      bool            `json:"auto"`
	Rotations uint64          `json:"rotations"`
	UptimeS   int64           `json:"uptime_s"`
	Journal   *journalSummary `json:"journal,omitempty"`
}

// journalSummary is the persisted-event digest inside a checkup reply.
type journalSummary struct {
	Rotations24h      int      `json:"rotations_24h"`
	EngineFailures24h int      `json:"engine_failures_24h"`
	Recent            []string `json:"recent"`
}

// CheckupReply builds the JSON liveness summary. When a journal is
// configured the reply also carries 24-hour event counts and the newest
// journal entries; a journal read failure drops that section rather
// than failing the reply.
func (t *Top) CheckupReply(ctx context.Context) ([]byte, error) {
	report := checkupReport{
		Name:      t.cfg.Name,
		State:     t.State().String(),
		Division:  fmt.Sprintf("%dx%d", t.cfg.Division.Columns, t.cfg.Division.Rows),
		Auto:      t.Flags.AutoEnabled(),
		Rotations: t.Rotations(),
		UptimeS:   int64(time.Since(t.started).Seconds()),
	}
	if t.cfg.Journal != nil {
		report.Journal = t.journalSummary(ctx)
	}
	return json.Marshal(report)
}

// journalSummary reads the checkup digest from the journal. Returns nil
// on any read error.
func (t *Top) journalSummary(ctx context.Context) *journalSummary {
	since := time.Now().Add(-24 * time.Hour)

	rotations, err := t.cfg.Journal.CountSince(ctx, journal.KindRotation, since)
	if err != nil {
		t.log.Warn("journal rotation count failed", "error", err)
		return nil
	}
	failures, err := t.cfg.Journal.CountSince(ctx, journal.KindEngineFailure, since)
	if err != nil {
		t.log.Warn("journal failure count failed", "error", err)
		return nil
	}
	entries, err := t.cfg.Journal.Recent(ctx, recentEventLimit)
	if err != nil {
		t.log.Warn("journal digest read failed", "error", err)
		return nil
	}

	s := &journalSummary{Rotations24h: rotations, EngineFailures24h: failures}
	for _, e := range entries {
		s.Recent = append(s.Recent, fmt.Sprintf("%s %s %s",
			e.At.UTC().Format(time.RFC3339), e.Kind, e.Detail))
	}
	return s
}

// stopCurrent fires the current epoch's stop signal, if one is live.
func (t *Top) stopCurrent() {
	if sig := t.current.Load(); sig != nil {
		sig.Set()
	}
}

// Run drives the state machine until ctx is cancelled. It blocks for
// the process lifetime; the PLAYING state in turn blocks for each
// splitter instance's entire run.
func (t *Top) Run(ctx context.Context) error {
	t.started = time.Now()
	t.log.Info("monitor starting", "state", t.State().String())

	// A process-level stop must also end an in-flight epoch.
	go func() {
		<-ctx.Done()
		t.stopCurrent()
	}()

	state := StatePlaying
	last := StatePlaying
	for ctx.Err() == nil {
		if state != last {
			t.log.Info("monitor state changed", "from", last.String(), "to", state.String())
			if t.cfg.OnStateChange != nil {
				t.cfg.OnStateChange(last, state)
			}
		}
		t.state.Store(int32(state))

		if state == StatePlaying {
			if err := t.runEpoch(ctx); err != nil {
				return err
			}
		}
		if state == StateStopped && last == StatePlaying {
			if err := t.power.ForceOff(); err != nil {
				t.log.Warn("display power off failed", "error", err)
			}
		}
		if state != StatePlaying {
			select {
			case <-ctx.Done():
			case <-time.After(t.idleWait):
			}
		}

		last = state
		switch state {
		case StatePlaying:
			if t.restartReq.Swap(false) {
				state = StateRestart
			} else if t.Flags.ScreenOff() {
				state = StateStopped
			}
		case StateRestart:
			state = StatePlaying
		case StateStopped:
			if t.restartReq.Swap(false) {
				state = StateRestart
			} else if !t.Flags.ScreenOff() {
				state = StatePlaying
			}
		}
	}

	// Never leave the display dark on the way out.
	t.Flags.SetScreenOff(false)
	if err := t.power.ForceOn(); err != nil {
		t.log.Warn("display power on failed", "error", err)
	}
	t.log.Info("monitor stopped")
	return nil
}

// runEpoch runs one splitter instance to completion.
func (t *Top) runEpoch(ctx context.Context) error {
	if err := t.power.ForceOn(); err != nil {
		t.log.Warn("display power on failed", "error", err)
	}

	sp, err := splitter.New(splitter.Config{
		URLs:          t.cfg.URLs,
		Division:      t.cfg.Division,
		RefreshPeriod: t.cfg.RefreshPeriod,
		JoinTimeout:   t.cfg.JoinTimeout,
		PlayTimeout:   t.cfg.PlayTimeout,
		Tuning:        t.cfg.Tuning,
		NewPlayer:     t.cfg.NewPlayer,
		OnRotate: func(slot int, forced bool) {
			t.rotations.Add(1)
			if t.cfg.OnRotate != nil {
				t.cfg.OnRotate(slot, forced)
			}
		},
		OnEngineFailure: t.cfg.OnEngineFailure,
	}, t.log)
	if err != nil {
		return fmt.Errorf("monitor: building splitter: %w", err)
	}

	sig := splitter.NewSignal()
	t.current.Store(sig)
	// A stop request that landed before this epoch's signal existed
	// would otherwise be lost.
	if ctx.Err() != nil || t.Flags.ScreenOff() || t.restartReq.Load() {
		sig.Set()
	}

	t.log.Info("starting playback epoch")
	sp.Run(sig)
	t.current.Store(nil)
	return nil
}
