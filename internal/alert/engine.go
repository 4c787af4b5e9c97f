// Package alert evaluates temperature and memory thresholds and gates
// operator notifications behind a per-key cooldown.
package alert

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/probe"
)

// Notifier delivers a message to the operator. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Alert is a threshold breach found in one snapshot.
type Alert struct {
	// Key describes the triggered conditions with their readings,
	// temperature first, e.g. "TEMP 75.0C | MEM 93%".
	Key string
	// Signature names the triggered conditions without readings, e.g.
	// "TEMP|MEM". The cooldown is keyed on it.
	Signature  string
	Conditions []string
}

// Message is the text sent to the operator.
func (a Alert) Message() string {
	return "⚠️ Alert: " + a.Key
}

// State is the notification suppression record. LastKey holds the
// signature of the last dispatched alert.
type State struct {
	LastKey    string
	LastSentAt time.Time
}

// Engine evaluates snapshots and dispatches notifications.
type Engine struct {
	tempThreshold float64
	memThreshold  int
	cooldown      time.Duration
	notifier      Notifier
	logger        *logging.Logger
	now           func() time.Time

	mu    sync.Mutex
	state State
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an alert engine. A nil notifier disables dispatch but
// keeps the cooldown bookkeeping.
func NewEngine(cfg config.AlertConfig, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		tempThreshold: cfg.TempThreshold,
		memThreshold:  cfg.MemoryThreshold,
		cooldown:      cfg.Cooldown,
		notifier:      notifier,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetAlertLogger()
	}
	return e
}

// Evaluate returns an alert when temperature or memory is at or above its
// threshold, or nil. Unavailable readings never trigger.
func (e *Engine) Evaluate(snap probe.SubsystemSnapshot) *Alert {
	var conditions, kinds []string
	if snap.TempC != nil && *snap.TempC >= e.tempThreshold {
		conditions = append(conditions, fmt.Sprintf("TEMP %.1fC", *snap.TempC))
		kinds = append(kinds, "TEMP")
	}
	if snap.MemPct != nil && *snap.MemPct >= e.memThreshold {
		conditions = append(conditions, fmt.Sprintf("MEM %d%%", *snap.MemPct))
		kinds = append(kinds, "MEM")
	}
	if len(conditions) == 0 {
		return nil
	}
	return &Alert{
		Key:        strings.Join(conditions, " | "),
		Signature:  strings.Join(kinds, "|"),
		Conditions: conditions,
	}
}

// MaybeNotify dispatches the alert unless an alert with the same signature
// was sent less than the cooldown ago. Readings drifting while the same
// conditions hold do not restart the cooldown. The state is updated before dispatch and is kept even
// if delivery fails. It reports whether a dispatch was attempted.
func (e *Engine) MaybeNotify(ctx context.Context, a *Alert) bool {
	if a == nil {
		return false
	}

	now := e.now()
	e.mu.Lock()
	if a.Signature == e.state.LastKey && now.Sub(e.state.LastSentAt) < e.cooldown {
		e.mu.Unlock()
		return false
	}
	e.state = State{LastKey: a.Signature, LastSentAt: now}
	e.mu.Unlock()

	logging.LogAlertDispatched(a.Key, e.cooldown.String())

	if e.notifier == nil {
		return true
	}
	if err := e.notifier.Notify(ctx, a.Message()); err != nil {
		e.logger.WithFields(map[string]interface{}{
			"key":   a.Key,
			"error": err.Error(),
		}).Warn("Failed to notify operator")
	}
	return true
}

// State returns a copy of the suppression record.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
