package splitter

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/layout"
	"github.com/MAGLaboratory/security-monitor/internal/player"
)

// Scheduler timing defaults.
const (
	defaultTickInterval  = 1 * time.Second
	defaultRefreshPeriod = 300
	defaultJoinTimeout   = 15 * time.Second
	defaultPlayTimeout   = 60 * time.Second

	// workerPollInterval bounds how long a live worker goes between
	// engine liveness checks.
	workerPollInterval = 1 * time.Second
)

// Logger is the logging interface the scheduler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config describes one scheduler instance.
type Config struct {
	// URLs are the tile sources; at least Division.Tiles() entries.
	URLs []string

	// Division is the visible grid.
	Division layout.Division

	// RefreshPeriod is the number of ticks between rotations.
	RefreshPeriod int

	// TickInterval is the scheduler's bookkeeping tick. Tests shorten
	// it; production leaves it at the one second default.
	TickInterval time.Duration

	// JoinTimeout bounds how long a retiring worker may take to exit
	// after its replacement has cued it. During rotation the retiring
	// worker is granted PlayTimeout on top of this, since the cue only
	// arrives once the replacement has reported ready or failed.
	JoinTimeout time.Duration

	// PlayTimeout bounds how long a fresh engine may take to reach
	// playing before the slot is marked failed.
	PlayTimeout time.Duration

	// Tuning is passed through to every engine unmodified.
	Tuning player.Tuning

	// NewPlayer constructs one engine handle per worker.
	NewPlayer player.Factory

	// OnRotate, if set, is called after each completed rotation with
	// the retired slot index and whether it had to be force-killed.
	OnRotate func(slot int, forcedKill bool)

	// OnEngineFailure, if set, is called when an engine fails to reach
	// playing (fatal=false) or dies unexpectedly (fatal=true).
	OnEngineFailure func(slot int, fatal bool)
}

// slot is one position in the worker ring. The mailbox survives the
// process lifetime; the rest is replaced each time a worker starts.
type slot struct {
	// mailbox carries the worker's stop cue: the successor posts here
	// when it is ready or failed. Capacity one, posts never block.
	mailbox chan struct{}

	// quit is closed by the scheduler to tear a worker down without
	// the escalation path, after its engine has been killed.
	quit chan struct{}

	// done is closed when the worker goroutine exits.
	done chan struct{}

	eng player.Player
}

// Splitter is the rotating worker-slot scheduler. One instance covers
// one playback epoch; Run blocks until the stop Signal fires.
type Splitter struct {
	cfg        Config
	log        Logger
	tiles      int
	slots      []*slot
	geometries []string

	rotations atomic.Uint64
}

// New validates the configuration and builds the slot ring. No workers
// start until Run.
func New(cfg Config, log Logger) (*Splitter, error) {
	tiles := cfg.Division.Tiles()
	if tiles <= 0 {
		return nil, fmt.Errorf("splitter: %w", layout.ErrInvalidDivision)
	}
	if len(cfg.URLs) < tiles {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSources, len(cfg.URLs), tiles)
	}
	if cfg.NewPlayer == nil {
		return nil, ErrNoFactory
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.RefreshPeriod <= 0 {
		cfg.RefreshPeriod = defaultRefreshPeriod
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	if cfg.PlayTimeout <= 0 {
		cfg.PlayTimeout = defaultPlayTimeout
	}

	geometries := make([]string, tiles)
	for tile := 0; tile < tiles; tile++ {
		geo, err := cfg.Division.Geometry(tile)
		if err != nil {
			return nil, fmt.Errorf("splitter: tile %d: %w", tile, err)
		}
		geometries[tile] = geo
	}

	slots := make([]*slot, tiles*2)
	for i := range slots {
		slots[i] = &slot{mailbox: make(chan struct{}, 1)}
	}

	return &Splitter{
		cfg:        cfg,
		log:        log,
		tiles:      tiles,
		slots:      slots,
		geometries: geometries,
	}, nil
}

// Rotations returns how many rotations this instance has completed.
func (s *Splitter) Rotations() uint64 {
	return s.rotations.Load()
}

// Run starts the initial workers and drives the rotation loop until
// the stop Signal fires, then tears every worker down. It blocks for
// the instance's entire lifetime.
func (s *Splitter) Run(stop *Signal) {
	s.log.Info("starting splitter",
		"tiles", s.tiles,
		"division", fmt.Sprintf("%dx%d", s.cfg.Division.Columns, s.cfg.Division.Rows),
		"refresh_ticks", s.cfg.RefreshPeriod)

	// Initial fill: worker i renders tile i and will hand its stop cue
	// to the standby slot opposite it. Readiness is not awaited here;
	// the signals land in mailboxes that are drained before reuse.
	for i := 0; i < s.tiles; i++ {
		s.startWorker(i, (i+s.tiles)%len(s.slots), stop)
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	p := 0
	ticks := 0
	for {
		select {
		case <-stop.Done():
			s.shutdown()
			return
		case <-ticker.C:
			ticks++
			if ticks >= s.cfg.RefreshPeriod {
				ticks = 0
				p = s.rotate(p, stop)
			}
		}
	}
}

// rotate replaces the worker at the cursor: its successor starts in the
// opposite slot, and the cursor's worker is retired once the successor
// has signaled ready or failed. Returns the advanced cursor.
func (s *Splitter) rotate(p int, stop *Signal) int {
	next := (p + s.tiles) % len(s.slots)

	// Discard any stale cue left over from this slot's previous tenant.
	select {
	case <-s.slots[next].mailbox:
	default:
	}

	s.startWorker(next, p, stop)

	// The replacement has up to PlayTimeout to report ready or failed,
	// and only then does the retiring worker receive its cue, so the
	// retirement bound must cover both phases. A slow but healthy
	// replacement is not grounds for killing its predecessor.
	retired := s.slots[p]
	forced := false
	select {
	case <-retired.done:
	case <-time.After(s.cfg.PlayTimeout + s.cfg.JoinTimeout):
		s.log.Warn("retiring player did not exit in time, killing", "slot", p)
		forced = true
		close(retired.quit)
		retired.eng.Kill()
		<-retired.done
	}

	s.rotations.Add(1)
	if s.cfg.OnRotate != nil {
		s.cfg.OnRotate(p, forced)
	}
	s.log.Debug("rotation complete", "retired_slot", p, "new_slot", next, "forced", forced)

	return (p + 1) % len(s.slots)
}

// startWorker launches a fresh worker in slot idx. The worker renders
// the tile owned by slot pred and posts its ready-or-failed cue into
// pred's mailbox.
func (s *Splitter) startWorker(idx, pred int, stop *Signal) {
	tile := pred % s.tiles
	sl := s.slots[idx]
	sl.eng = s.cfg.NewPlayer(fmt.Sprintf("slot%d-tile%d", idx, tile))
	sl.quit = make(chan struct{})
	sl.done = make(chan struct{})

	s.log.Info("starting player", "slot", idx, "tile", tile)
	go s.runWorker(sl, idx, tile, s.cfg.URLs[tile], s.slots[pred].mailbox, stop)
}

// runWorker is one worker's lifecycle: bring the engine to playing,
// cue the predecessor, then watch the engine until told to stop.
func (s *Splitter) runWorker(sl *slot, idx, tile int, url string, ready chan<- struct{}, stop *Signal) {
	eng, quit, done := sl.eng, sl.quit, sl.done
	defer close(done)

	failed := false
	if err := eng.Configure(s.geometries[tile], url, s.cfg.Tuning); err != nil {
		s.log.Error("player configuration failed", "slot", idx, "error", err)
		failed = true
	}
	if !failed {
		if err := eng.Start(); err != nil {
			s.log.Error("player start failed", "slot", idx, "url", url, "error", err)
			failed = true
		}
	}
	if !failed {
		if err := eng.WaitUntilPlaying(s.cfg.PlayTimeout); err != nil {
			s.log.Error("player never reached playing", "slot", idx, "url", url, "error", err)
			eng.Stop()
			failed = true
		}
	}
	if failed && s.cfg.OnEngineFailure != nil {
		s.cfg.OnEngineFailure(idx, false)
	}

	// Cue the predecessor even on failure: a degraded tile must not
	// wedge the rotation of every other tile.
	select {
	case ready <- struct{}{}:
	default:
	}

	poll := time.NewTicker(workerPollInterval)
	defer poll.Stop()
	for {
		select {
		case <-stop.Done():
			eng.Stop()
			return
		case <-sl.mailbox:
			s.log.Debug("player asked to stop", "slot", idx)
			eng.Stop()
			return
		case <-quit:
			// Engine already killed by the scheduler.
			return
		case <-poll.C:
			if failed {
				continue
			}
			if !eng.IsAlive() {
				select {
				case <-quit:
					return
				default:
				}
				s.log.Error("player engine died unexpectedly, stopping monitor", "slot", idx)
				if s.cfg.OnEngineFailure != nil {
					s.cfg.OnEngineFailure(idx, true)
				}
				stop.Set()
				eng.Stop()
				return
			}
		}
	}
}

// shutdown cues every worker to stop, waits out the join timeout, and
// kills anything still running.
func (s *Splitter) shutdown() {
	s.log.Info("stopping splitter")

	for _, sl := range s.slots {
		select {
		case sl.mailbox <- struct{}{}:
		default:
		}
	}

	deadline := time.After(s.cfg.JoinTimeout)
	for i, sl := range s.slots {
		if sl.done == nil {
			continue
		}
		select {
		case <-sl.done:
			continue
		default:
		}
		select {
		case <-sl.done:
		case <-deadline:
			s.log.Warn("player did not exit during shutdown, killing", "slot", i)
			close(sl.quit)
			sl.eng.Kill()
			<-sl.done
		}
	}

	s.log.Info("splitter stopped")
}
