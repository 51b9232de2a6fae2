package command

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/auth"
)

// envelopeRe splits the wire format into its JSON half and its detached
// signature. The greedy JSON group makes the split land on the last ", "
// before the closing paren.
var envelopeRe = regexp.MustCompile(`\A\((\{.+\}), (.+)\)\z`)

// Logger is the logging interface the handler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Intents are the control callbacks a dispatched command may invoke.
// Handlers are registered explicitly rather than inherited from the
// transport client, so both transports share one dispatch path.
type Intents struct {
	// Restart requests a fresh PLAYING epoch from the state machine.
	Restart func()

	// Auto re-enables automatic (motion-driven) display control.
	Auto func()

	// Force disables automatic control and forces the display on or off.
	Force func(on bool)
}

// Handler authenticates and dispatches command envelopes.
//
// A single Handler instance serves every transport; all methods are safe
// for concurrent use because the handler itself is read-only after
// construction.
type Handler struct {
	secrets  [][]byte
	maxDelta time.Duration
	intents  Intents
	log      Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewHandler builds a command handler over the decoded secret set.
// maxDelta is the freshness window applied to the embedded timestamp.
func NewHandler(secrets [][]byte, maxDelta time.Duration, intents Intents) *Handler {
	return &Handler{
		secrets:  secrets,
		maxDelta: maxDelta,
		intents:  intents,
		log:      noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets a logger for rejected and dispatched commands.
func (h *Handler) SetLogger(log Logger) {
	if log != nil {
		h.log = log
	}
}

// Apply parses, authenticates, and dispatches one command line.
//
// The returned bool is the transport acknowledgment indicator: true when
// the command resulted in a state-changing action (restart or force),
// false otherwise. Rejections are logged, never returned to the sender.
func (h *Handler) Apply(raw string) bool {
	acted, err := h.apply(raw)
	if err != nil {
		h.log.Info("command rejected", "error", err)
	}
	return acted
}

func (h *Handler) apply(raw string) (bool, error) {
	m := envelopeRe.FindStringSubmatch(raw)
	if m == nil {
		return false, ErrNotCommand
	}
	payload, signature := m[1], m[2]

	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	sent, ok := data["time"].(float64)
	if !ok {
		return false, fmt.Errorf("%w: missing numeric time field", ErrBadPayload)
	}
	delta := math.Abs(float64(h.now().Unix()) - sent)
	if delta > h.maxDelta.Seconds() {
		return false, fmt.Errorf("%w: off by %.0fs, window %.0fs", ErrStaleCommand, delta, h.maxDelta.Seconds())
	}

	// Authenticate over the raw JSON substring, not a re-serialization.
	if err := auth.Verify(payload, signature, h.secrets); err != nil {
		return false, err
	}

	return h.dispatch(data), nil
}

// dispatch routes an authenticated payload by field presence, in
// precedence order. Any other shape is authenticated but a no-op.
func (h *Handler) dispatch(data map[string]any) bool {
	if v, ok := data["restart"]; ok {
		h.log.Info("received monitor restart", "restart", v)
		if truthy(v) {
			h.intents.Restart()
			return true
		}
		return false
	}

	if v, ok := data["auto"]; ok && v == true {
		h.log.Info("received automatic mode enable")
		h.intents.Auto()
		return false
	}

	if v, ok := data["force"]; ok {
		h.log.Info("received monitor status force", "force", v)
		h.intents.Force(truthy(v))
		return true
	}

	return false
}

// truthy mirrors loose JSON truthiness: false, 0, "", and null are
// false; everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}
