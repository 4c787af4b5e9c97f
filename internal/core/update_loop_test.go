package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raainshe/homepanel/internal/activity"
	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/probe"
)

type fakeSource struct {
	mu      sync.Mutex
	snap    probe.SubsystemSnapshot
	calls   atomic.Int32
	block   chan struct{}
	entered chan struct{}
	panicky bool
}

func (f *fakeSource) Snapshot(context.Context) probe.SubsystemSnapshot {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicky {
		panic("probe exploded")
	}
	return f.snap
}

func (f *fakeSource) set(snap probe.SubsystemSnapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

type recordingSink struct {
	mu      sync.Mutex
	screens []dashboard.Screen
}

func (s *recordingSink) Submit(screen dashboard.Screen) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screens = append(s.screens, screen)
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

type countingNotifier struct {
	n atomic.Int32
}

func (c *countingNotifier) Notify(context.Context, string) error {
	c.n.Add(1)
	return nil
}

type fixture struct {
	now      time.Time
	source   *fakeSource
	sink     *recordingSink
	notifier *countingNotifier
	tracker  *activity.Tracker
	loop     *UpdateLoop
}

func newFixture(interval time.Duration) *fixture {
	f := &fixture{
		now:      time.Unix(18, 0).UTC(),
		source:   &fakeSource{},
		sink:     &recordingSink{},
		notifier: &countingNotifier{},
	}
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return f.now
	}
	f.tracker = activity.NewTracker(clock)
	engine := alert.NewEngine(config.AlertConfig{TempThreshold: 70, MemoryThreshold: 90, Cooldown: 30 * time.Minute},
		f.notifier, alert.WithClock(clock), alert.WithLogger(logging.NewDiscard()))
	selector := dashboard.Selector{Title: "Homepanel", RotationPeriod: 6 * time.Second, ActivityWindow: 20 * time.Second, Width: 20}

	f.loop = NewUpdateLoop(interval, f.source, engine, f.tracker, selector, f.sink,
		WithClock(clock), WithLogger(logging.NewDiscard()))
	return f
}

func temp(v float64) *float64 { return &v }

func TestTickPipeline(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()

	c, ok := f.loop.Tick(ctx)
	require.True(t, ok)
	assert.Equal(t, dashboard.KindTips, c.Kind)
	assert.Equal(t, 1, f.sink.count())

	f.source.set(probe.SubsystemSnapshot{TempC: temp(75)})
	c, ok = f.loop.Tick(ctx)
	require.True(t, ok)
	assert.Equal(t, dashboard.KindAlert, c.Kind)
	assert.Equal(t, int32(1), f.notifier.n.Load())

	// Same key within the cooldown does not notify again.
	f.loop.Tick(ctx)
	assert.Equal(t, int32(1), f.notifier.n.Load())
}

func TestRefreshShowsActivity(t *testing.T) {
	f := newFixture(time.Second)
	f.tracker.Note("/ping alice")

	c, ok := f.loop.Refresh(context.Background())
	require.True(t, ok)
	assert.Equal(t, dashboard.KindActivity, c.Kind)
	assert.Equal(t, "/ping alice", c.Screen.Line1)
}

func TestStartInvalidConfig(t *testing.T) {
	f := newFixture(0)
	err := f.loop.Start(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.False(t, f.loop.IsRunning())

	loop := NewUpdateLoop(time.Second, nil, nil, nil, dashboard.Selector{RotationPeriod: time.Second}, nil,
		WithLogger(logging.NewDiscard()))
	assert.ErrorIs(t, loop.Start(context.Background()), ErrInvalidConfig)

	loop = NewUpdateLoop(time.Second, &fakeSource{}, nil, nil, dashboard.Selector{}, &recordingSink{},
		WithLogger(logging.NewDiscard()))
	assert.ErrorIs(t, loop.Start(context.Background()), ErrInvalidConfig)
}

func TestStartStop(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, f.loop.Start(ctx))
	require.NoError(t, f.loop.Start(ctx))
	assert.True(t, f.loop.IsRunning())

	assert.Eventually(t, func() bool { return f.sink.count() >= 3 }, 2*time.Second, 5*time.Millisecond)

	f.loop.Stop()
	assert.False(t, f.loop.IsRunning())
	stopped := f.source.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, f.source.calls.Load())

	// Stop is idempotent and the loop can be started again.
	f.loop.Stop()
	require.NoError(t, f.loop.Start(ctx))
	assert.Eventually(t, func() bool { return f.source.calls.Load() > stopped }, 2*time.Second, 5*time.Millisecond)
	f.loop.Stop()
}

func TestContextCancelStopsWorker(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.loop.Start(ctx))
	assert.Eventually(t, func() bool { return f.sink.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		f.loop.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
	assert.False(t, f.loop.IsRunning())
}

func TestRestartAfterContextCancel(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.loop.Start(ctx))
	assert.Eventually(t, func() bool { return f.sink.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool { return !f.loop.IsRunning() }, 2*time.Second, 5*time.Millisecond)

	before := f.sink.count()
	require.NoError(t, f.loop.Start(context.Background()))
	defer f.loop.Stop()
	assert.True(t, f.loop.IsRunning())
	assert.Eventually(t, func() bool { return f.sink.count() > before }, 2*time.Second, 5*time.Millisecond)
}

func TestOverlappingTickIsSkipped(t *testing.T) {
	f := newFixture(time.Second)
	f.source.block = make(chan struct{})
	f.source.entered = make(chan struct{}, 1)

	first := make(chan bool)
	go func() {
		_, ok := f.loop.Tick(context.Background())
		first <- ok
	}()
	<-f.source.entered

	_, ok := f.loop.Tick(context.Background())
	assert.False(t, ok)
	assert.Equal(t, int64(1), f.loop.Stats().Skipped)

	close(f.source.block)
	assert.True(t, <-first)
	assert.Equal(t, int64(1), f.loop.Stats().Ticks)
}

func TestPanickingTickDoesNotKillLoop(t *testing.T) {
	f := newFixture(10 * time.Millisecond)
	f.source.panicky = true

	require.NoError(t, f.loop.Start(context.Background()))
	assert.Eventually(t, func() bool { return f.source.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	f.loop.Stop()
	assert.Zero(t, f.sink.count())
}
