package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/probe"
)

// ErrInvalidConfig is returned by Start when the loop cannot run.
var ErrInvalidConfig = errors.New("invalid update loop configuration")

// SnapshotSource samples every subsystem.
type SnapshotSource interface {
	Snapshot(ctx context.Context) probe.SubsystemSnapshot
}

// AlertEvaluator checks thresholds and gates notifications.
type AlertEvaluator interface {
	Evaluate(snap probe.SubsystemSnapshot) *alert.Alert
	MaybeNotify(ctx context.Context, a *alert.Alert) bool
}

// ActivitySource reports the last noted action and its age.
type ActivitySource interface {
	Peek() (string, time.Duration)
}

// FrameSink accepts screens for drawing.
type FrameSink interface {
	Submit(screen dashboard.Screen) bool
}

// UpdateLoop is the single background worker that refreshes the panel.
type UpdateLoop struct {
	interval time.Duration
	probes   SnapshotSource
	alerts   AlertEvaluator
	activity ActivitySource
	selector dashboard.Selector
	sink     FrameSink
	logger   *logging.Logger
	now      func() time.Time

	// Background processing
	stopChan     chan struct{}
	doneChan     chan struct{}
	isRunning    bool
	runningMutex sync.Mutex

	// Held for the duration of one tick; overlapping ticks are skipped.
	tickMutex sync.Mutex
	ticks     atomic.Int64
	skipped   atomic.Int64
}

// LoopOption configures an UpdateLoop
type LoopOption func(*UpdateLoop)

// WithClock overrides the time source used for screen selection.
func WithClock(now func() time.Time) LoopOption {
	return func(l *UpdateLoop) { l.now = now }
}

// WithLogger sets the loop logger.
func WithLogger(logger *logging.Logger) LoopOption {
	return func(l *UpdateLoop) { l.logger = logger }
}

// NewUpdateLoop wires the loop to its collaborators. Configuration errors
// are reported by Start.
func NewUpdateLoop(interval time.Duration, probes SnapshotSource, alerts AlertEvaluator,
	activity ActivitySource, selector dashboard.Selector, sink FrameSink, opts ...LoopOption) *UpdateLoop {

	l := &UpdateLoop{
		interval: interval,
		probes:   probes,
		alerts:   alerts,
		activity: activity,
		selector: selector,
		sink:     sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.GetLoopLogger()
	}
	return l
}

func (l *UpdateLoop) validate() error {
	switch {
	case l.interval <= 0:
		return fmt.Errorf("%w: tick interval must be greater than 0, got %s", ErrInvalidConfig, l.interval)
	case l.selector.RotationPeriod <= 0:
		return fmt.Errorf("%w: rotation period must be greater than 0, got %s", ErrInvalidConfig, l.selector.RotationPeriod)
	case l.probes == nil, l.alerts == nil, l.activity == nil, l.sink == nil:
		return fmt.Errorf("%w: missing collaborator", ErrInvalidConfig)
	}
	return nil
}

// Start launches the background worker. It returns ErrInvalidConfig when the
// loop is misconfigured and does nothing if the loop is already running.
func (l *UpdateLoop) Start(ctx context.Context) error {
	if err := l.validate(); err != nil {
		return err
	}

	l.runningMutex.Lock()
	defer l.runningMutex.Unlock()

	if l.runningLocked() {
		l.logger.Debug("Update loop already running")
		return nil
	}

	l.stopChan = make(chan struct{})
	l.doneChan = make(chan struct{})
	l.isRunning = true

	go l.backgroundProcessor(ctx, l.stopChan, l.doneChan)

	l.logger.WithFields(map[string]interface{}{
		"tick_interval":   l.interval.String(),
		"rotation_period": l.selector.RotationPeriod.String(),
		"activity_window": l.selector.ActivityWindow.String(),
	}).Info("Update loop started")

	return nil
}

// Stop signals the worker and waits for the in-flight tick to finish.
func (l *UpdateLoop) Stop() {
	l.runningMutex.Lock()
	defer l.runningMutex.Unlock()

	if !l.runningLocked() {
		return
	}

	close(l.stopChan)
	<-l.doneChan
	l.isRunning = false

	l.logger.WithFields(map[string]interface{}{
		"ticks":   l.ticks.Load(),
		"skipped": l.skipped.Load(),
	}).Info("Update loop stopped")
}

// IsRunning returns whether the worker is active
func (l *UpdateLoop) IsRunning() bool {
	l.runningMutex.Lock()
	defer l.runningMutex.Unlock()
	return l.runningLocked()
}

// runningLocked reports whether the worker is alive. A worker that exited
// on context cancellation is marked stopped so Start can launch a new one.
// Callers hold runningMutex.
func (l *UpdateLoop) runningLocked() bool {
	if !l.isRunning {
		return false
	}
	select {
	case <-l.doneChan:
		l.isRunning = false
		return false
	default:
		return true
	}
}

// Refresh runs one tick on the caller's goroutine so a chat command shows up
// on the panel without waiting for the next interval.
func (l *UpdateLoop) Refresh(ctx context.Context) (dashboard.Candidate, bool) {
	return l.Tick(ctx)
}

// Tick samples, evaluates alerts, selects a screen and submits it. It returns
// false without doing anything if another tick is in progress.
func (l *UpdateLoop) Tick(ctx context.Context) (dashboard.Candidate, bool) {
	if !l.tickMutex.TryLock() {
		l.skipped.Add(1)
		l.logger.Debug("Previous tick still running, skipping")
		return dashboard.Candidate{}, false
	}
	defer l.tickMutex.Unlock()

	snap := l.probes.Snapshot(ctx)
	a := l.alerts.Evaluate(snap)
	l.alerts.MaybeNotify(ctx, a)

	text, age := l.activity.Peek()
	selected := l.selector.Select(dashboard.Input{
		Snapshot:     snap,
		Alert:        a,
		ActivityText: text,
		ActivityAge:  age,
	}, l.now())

	if l.sink.Submit(selected.Screen) {
		l.logger.WithField("screen", string(selected.Kind)).Debug("Screen drawn")
	}
	l.ticks.Add(1)
	return selected, true
}

// backgroundProcessor ticks until stopped. Cancellation is only observed
// between ticks.
func (l *UpdateLoop) backgroundProcessor(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.safeTick(ctx)
	for {
		select {
		case <-stop:
			l.logger.Debug("Update loop received stop signal")
			return
		case <-ctx.Done():
			l.logger.Debug("Update loop context cancelled")
			return
		case <-ticker.C:
			l.safeTick(ctx)
		}
	}
}

func (l *UpdateLoop) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithField("panic", fmt.Sprint(r)).Error("Tick panicked")
		}
	}()
	l.Tick(ctx)
}

// LoopStats counts ticks.
type LoopStats struct {
	Ticks   int64
	Skipped int64
}

// Stats returns the tick counters.
func (l *UpdateLoop) Stats() LoopStats {
	return LoopStats{Ticks: l.ticks.Load(), Skipped: l.skipped.Load()}
}
