package monitor

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/journal"
	"github.com/MAGLaboratory/security-monitor/internal/layout"
	"github.com/MAGLaboratory/security-monitor/internal/player"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// powerRecorder records display power transitions.
type powerRecorder struct {
	mu     sync.Mutex
	levels []string
}

func (p *powerRecorder) Supported() bool { return true }

func (p *powerRecorder) ForceOn() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = append(p.levels, "on")
	return nil
}

func (p *powerRecorder) ForceOff() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = append(p.levels, "off")
	return nil
}

func (p *powerRecorder) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.levels) == 0 {
		return ""
	}
	return p.levels[len(p.levels)-1]
}

// stubPlayer plays immediately and stays alive until stopped.
type stubPlayer struct {
	mu    sync.Mutex
	alive bool
}

func (s *stubPlayer) Configure(string, string, player.Tuning) error { return nil }

func (s *stubPlayer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = true
	return nil
}

func (s *stubPlayer) WaitUntilPlaying(time.Duration) error { return nil }

func (s *stubPlayer) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *stubPlayer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
}

func (s *stubPlayer) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func newTestTop(t *testing.T, spawned *atomic.Int32) (*Top, *powerRecorder) {
	t.Helper()
	power := &powerRecorder{}
	top, err := New(Config{
		Name:          "secmon-test",
		URLs:          []string{"rtsp://cam1"},
		Division:      layout.Division{Columns: 1, Rows: 1},
		RefreshPeriod: 10000,
		MotionField:   "ConfRm Motion",
		NewPlayer: func(string) player.Player {
			if spawned != nil {
				spawned.Add(1)
			}
			return &stubPlayer{}
		},
	}, power, testLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	top.idleWait = 10 * time.Millisecond
	return top, power
}

func runTop(t *testing.T, top *Top) (cancel context.CancelFunc, done <-chan struct{}) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	ch := make(chan struct{})
	go func() {
		if err := top.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
		close(ch)
	}()
	t.Cleanup(func() {
		cancelFn()
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Error("monitor did not stop")
		}
	})
	return cancelFn, ch
}

func TestTop_OffAndOn(t *testing.T) {
	top, power := newTestTop(t, nil)
	runTop(t, top)

	waitFor(t, 2*time.Second, func() bool { return top.State() == StatePlaying })
	waitFor(t, 2*time.Second, func() bool { return power.last() == "on" })

	top.MonOff()
	waitFor(t, 2*time.Second, func() bool { return top.State() == StateStopped })
	waitFor(t, 2*time.Second, func() bool { return power.last() == "off" })

	top.MonOn()
	waitFor(t, 2*time.Second, func() bool { return top.State() == StatePlaying })
	waitFor(t, 2*time.Second, func() bool { return power.last() == "on" })
}

func TestTop_RestartStartsFreshEpoch(t *testing.T) {
	var spawned atomic.Int32
	top, _ := newTestTop(t, &spawned)
	runTop(t, top)

	waitFor(t, 2*time.Second, func() bool { return spawned.Load() == 1 })

	top.Restart()
	// A fresh epoch spawns a fresh player.
	waitFor(t, 3*time.Second, func() bool { return spawned.Load() >= 2 })
	waitFor(t, 2*time.Second, func() bool { return top.State() == StatePlaying })
}

func TestTop_RestartWhileStopped(t *testing.T) {
	var spawned atomic.Int32
	top, power := newTestTop(t, &spawned)
	runTop(t, top)

	waitFor(t, 2*time.Second, func() bool { return spawned.Load() == 1 })
	top.Force(false)
	waitFor(t, 2*time.Second, func() bool { return top.State() == StateStopped })

	top.Restart()
	waitFor(t, 3*time.Second, func() bool { return spawned.Load() >= 2 })
	_ = power
}

func TestTop_ShutdownForcesPowerOn(t *testing.T) {
	top, power := newTestTop(t, nil)
	cancel, done := runTop(t, top)

	waitFor(t, 2*time.Second, func() bool { return top.State() == StatePlaying })
	top.MonOff()
	waitFor(t, 2*time.Second, func() bool { return power.last() == "off" })

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
	if power.last() != "on" {
		t.Errorf("final power level = %q, want on", power.last())
	}
	if top.Flags.ScreenOff() {
		t.Error("screen-off flag still set after shutdown")
	}
}

func TestTop_ForceDisablesAuto(t *testing.T) {
	top, _ := newTestTop(t, nil)

	if !top.Flags.AutoEnabled() {
		t.Fatal("auto not enabled by default")
	}
	top.Force(true)
	if top.Flags.AutoEnabled() {
		t.Error("auto still enabled after force")
	}
	top.AutoEnable()
	if !top.Flags.AutoEnabled() {
		t.Error("auto not re-enabled")
	}
}

func TestTop_HandleMotion(t *testing.T) {
	top, _ := newTestTop(t, nil)

	top.HandleMotion([]byte(`{"ConfRm Motion": 1}`))
	if !top.Flags.TakeMotion() {
		t.Error("motion not latched for a non-zero field")
	}

	top.HandleMotion([]byte(`{"ConfRm Motion": 0}`))
	if top.Flags.TakeMotion() {
		t.Error("motion latched for a zero field")
	}

	top.HandleMotion([]byte(`{"Other": 1}`))
	if top.Flags.TakeMotion() {
		t.Error("motion latched for an unrelated field")
	}

	top.HandleMotion([]byte(`not json`))
	if top.Flags.TakeMotion() {
		t.Error("motion latched for a malformed payload")
	}
}

func TestTop_CheckupReply(t *testing.T) {
	top, _ := newTestTop(t, nil)

	raw, err := top.CheckupReply(context.Background())
	if err != nil {
		t.Fatalf("CheckupReply: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if report["name"] != "secmon-test" {
		t.Errorf("name = %v", report["name"])
	}
	if report["state"] != "PLAYING" {
		t.Errorf("state = %v", report["state"])
	}
	if report["division"] != "1x1" {
		t.Errorf("division = %v", report["division"])
	}
	if report["auto"] != true {
		t.Errorf("auto = %v", report["auto"])
	}
	if _, present := report["journal"]; present {
		t.Error("reply carries a journal section without a journal configured")
	}
}

// stubJournal serves canned entries and counts.
type stubJournal struct {
	entries []journal.Entry
	counts  map[string]int
	err     error
}

func (s *stubJournal) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *stubJournal) CountSince(_ context.Context, kind string, _ time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[kind], nil
}

func TestTop_CheckupReplyWithJournal(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	jnl := &stubJournal{
		entries: []journal.Entry{
			{ID: 2, At: at, Kind: journal.KindRotation, Detail: "slot=1 forced=false"},
			{ID: 1, At: at.Add(-time.Minute), Kind: journal.KindState, Detail: "STOPPED -> PLAYING"},
		},
		counts: map[string]int{
			journal.KindRotation:      7,
			journal.KindEngineFailure: 2,
		},
	}

	power := &powerRecorder{}
	top, err := New(Config{
		Name:      "secmon-test",
		URLs:      []string{"rtsp://cam1"},
		Division:  layout.Division{Columns: 1, Rows: 1},
		NewPlayer: func(string) player.Player { return &stubPlayer{} },
		Journal:   jnl,
	}, power, testLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	raw, err := top.CheckupReply(context.Background())
	if err != nil {
		t.Fatalf("CheckupReply: %v", err)
	}
	var report struct {
		Journal *struct {
			Rotations24h      int      `json:"rotations_24h"`
			EngineFailures24h int      `json:"engine_failures_24h"`
			Recent            []string `json:"recent"`
		} `json:"journal"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if report.Journal == nil {
		t.Fatal("reply has no journal section")
	}
	if report.Journal.Rotations24h != 7 {
		t.Errorf("rotations_24h = %d, want 7", report.Journal.Rotations24h)
	}
	if report.Journal.EngineFailures24h != 2 {
		t.Errorf("engine_failures_24h = %d, want 2", report.Journal.EngineFailures24h)
	}
	want := "2026-08-30T12:00:00Z rotation slot=1 forced=false"
	if len(report.Journal.Recent) != 2 || report.Journal.Recent[0] != want {
		t.Errorf("recent = %v, want first entry %q", report.Journal.Recent, want)
	}

	// A journal read failure drops the section instead of failing the
	// reply.
	jnl.err = context.DeadlineExceeded
	raw, err = top.CheckupReply(context.Background())
	if err != nil {
		t.Fatalf("CheckupReply with failing journal: %v", err)
	}
	var degraded map[string]any
	if err := json.Unmarshal(raw, &degraded); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if _, present := degraded["journal"]; present {
		t.Error("reply carries a journal section despite read failure")
	}
}

func TestNew_Validation(t *testing.T) {
	factory := func(string) player.Player { return &stubPlayer{} }
	power := &powerRecorder{}

	if _, err := New(Config{
		URLs:      []string{"rtsp://cam1"},
		Division:  layout.Division{Columns: 2, Rows: 1},
		NewPlayer: factory,
	}, power, testLogger{}); err == nil {
		t.Error("New accepted fewer URLs than tiles")
	}

	if _, err := New(Config{
		URLs:     []string{"rtsp://cam1"},
		Division: layout.Division{Columns: 1, Rows: 1},
	}, power, testLogger{}); err == nil {
		t.Error("New accepted a nil factory")
	}
}

func TestState_String(t *testing.T) {
	if StatePlaying.String() != "PLAYING" || StateStopped.String() != "STOPPED" || StateRestart.String() != "RESTART" {
		t.Error("state names wrong")
	}
}
