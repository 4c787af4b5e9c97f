package display

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/logging"
)

// Throttle rate-caps and deduplicates draws.
type Throttle struct {
	drawer      Drawer
	minInterval time.Duration
	now         func() time.Time
	logger      *logging.Logger

	mu     sync.Mutex
	last   dashboard.Screen
	lastAt time.Time
	drawn  bool

	draws    atomic.Int64
	dropped  atomic.Int64
	failures atomic.Int64
}

// ThrottleOption configures a Throttle
type ThrottleOption func(*Throttle)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) { t.now = now }
}

// WithLogger sets the throttle logger.
func WithLogger(logger *logging.Logger) ThrottleOption {
	return func(t *Throttle) { t.logger = logger }
}

// NewThrottle wraps drawer with a minimum interval between successful draws.
func NewThrottle(drawer Drawer, minInterval time.Duration, opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		drawer:      drawer,
		minInterval: minInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.GetDisplayLogger()
	}
	return t
}

// Submit draws screen unless the last successful draw was less than the
// minimum interval ago or drew an identical screen. A failed draw is logged
// and not recorded, so the next submit retries. It reports whether the
// screen was drawn.
func (t *Throttle) Submit(screen dashboard.Screen) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.drawn && (now.Sub(t.lastAt) < t.minInterval || screen == t.last) {
		t.dropped.Add(1)
		return false
	}

	if err := t.drawer.Draw(screen); err != nil {
		t.failures.Add(1)
		t.logger.WithFields(map[string]interface{}{
			"driver": t.drawer.Name(),
			"error":  err.Error(),
		}).Warn("Failed to draw frame")
		return false
	}

	t.last = screen
	t.lastAt = now
	t.drawn = true
	t.draws.Add(1)
	return true
}

// Last returns the last successfully drawn screen.
func (t *Throttle) Last() (dashboard.Screen, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.drawn
}

// ThrottleStats counts submit outcomes.
type ThrottleStats struct {
	Draws    int64
	Dropped  int64
	Failures int64
}

// Stats returns the submit counters.
func (t *Throttle) Stats() ThrottleStats {
	return ThrottleStats{
		Draws:    t.draws.Load(),
		Dropped:  t.dropped.Load(),
		Failures: t.failures.Load(),
	}
}
