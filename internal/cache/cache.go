package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/raainshe/homepanel/internal/logging"
)

// ErrUnavailable is returned (wrapped) whenever a probe could not produce a
// value. Callers use errors.Is to tell it apart from a genuine zero value.
var ErrUnavailable = errors.New("probe unavailable")

// entryKey is the single key each sampler stores its entry under.
const entryKey = "entry"

// ProbeFunc is an expensive read of an external subsystem.
type ProbeFunc[T any] func(ctx context.Context) (T, error)

// Entry is a probed value and the time it was captured.
type Entry[T any] struct {
	Value      T
	CapturedAt time.Time
}

// Sampler memoizes one probe for a freshness window. Each sampler owns its
// own go-cache instance so unrelated probes never share a lock.
type Sampler[T any] struct {
	name   string
	cells  *cache.Cache
	group  singleflight.Group
	dedup  bool
	now    func() time.Time
	logger *logging.Logger
	stats  Stats
}

// Stats tracks sampler performance counters
type Stats struct {
	Hits     atomic.Int64
	Misses   atomic.Int64
	Failures atomic.Int64
}

// StatsSnapshot is a copy of Stats safe to pass around
type StatsSnapshot struct {
	Name     string `json:"name"`
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
	Failures int64  `json:"failures"`
}

// Option configures a Sampler
type Option func(*options)

type options struct {
	now    func() time.Time
	dedup  bool
	logger *logging.Logger
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSingleFlight collapses concurrent probe calls made while the entry is
// expired into one call.
func WithSingleFlight() Option {
	return func(o *options) { o.dedup = true }
}

// WithLogger sets the logger used for probe failures.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewSampler creates an empty sampler identified by name in logs and stats.
func NewSampler[T any](name string, opts ...Option) *Sampler[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.GetCacheLogger()
	}

	return &Sampler[T]{
		name: name,
		// No janitor: freshness is decided on read against CapturedAt.
		cells:  cache.New(cache.NoExpiration, 0),
		dedup:  o.dedup,
		now:    o.now,
		logger: o.logger,
	}
}

// Get returns the stored value if it is younger than ttl, otherwise calls
// probe and stores its result. A failed probe leaves the stored entry
// untouched and returns an error wrapping ErrUnavailable. A ttl of zero
// always probes.
func (s *Sampler[T]) Get(ctx context.Context, ttl time.Duration, probe ProbeFunc[T]) (T, error) {
	if entry, ok := s.Peek(); ok && s.now().Sub(entry.CapturedAt) < ttl {
		s.stats.Hits.Add(1)
		return entry.Value, nil
	}
	s.stats.Misses.Add(1)

	if !s.dedup {
		return s.refresh(ctx, probe)
	}

	v, err, _ := s.group.Do(s.name, func() (interface{}, error) {
		return s.refresh(ctx, probe)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *Sampler[T]) refresh(ctx context.Context, probe ProbeFunc[T]) (T, error) {
	value, err := probe(ctx)
	if err != nil {
		s.stats.Failures.Add(1)
		s.logger.WithFields(map[string]interface{}{
			"sampler": s.name,
			"error":   err.Error(),
		}).Debug("Probe failed, keeping previous entry")

		var zero T
		if errors.Is(err, ErrUnavailable) {
			return zero, err
		}
		return zero, fmt.Errorf("%s: %w: %w", s.name, ErrUnavailable, err)
	}

	s.cells.Set(entryKey, Entry[T]{Value: value, CapturedAt: s.now()}, cache.NoExpiration)
	return value, nil
}

// Peek returns the stored entry regardless of age.
func (s *Sampler[T]) Peek() (Entry[T], bool) {
	raw, found := s.cells.Get(entryKey)
	if !found {
		return Entry[T]{}, false
	}
	entry, ok := raw.(Entry[T])
	if !ok {
		s.logger.WithField("sampler", s.name).Warn("Invalid entry type in cache")
		s.cells.Delete(entryKey)
		return Entry[T]{}, false
	}
	return entry, true
}

// Invalidate drops the stored entry so the next Get probes.
func (s *Sampler[T]) Invalidate() {
	s.cells.Delete(entryKey)
}

// Name returns the sampler name
func (s *Sampler[T]) Name() string {
	return s.name
}

// Stats returns a copy of the sampler counters
func (s *Sampler[T]) Stats() StatsSnapshot {
	return StatsSnapshot{
		Name:     s.name,
		Hits:     s.stats.Hits.Load(),
		Misses:   s.stats.Misses.Load(),
		Failures: s.stats.Failures.Load(),
	}
}

// HitRatio returns the cache hit ratio as a percentage
func (st StatsSnapshot) HitRatio() float64 {
	total := st.Hits + st.Misses
	if total == 0 {
		return 0.0
	}
	return (float64(st.Hits) / float64(total)) * 100.0
}

// LogStats logs the given sampler statistics
func LogStats(logger *logging.Logger, stats ...StatsSnapshot) {
	for _, st := range stats {
		logger.WithFields(map[string]interface{}{
			"sampler":   st.Name,
			"hits":      st.Hits,
			"misses":    st.Misses,
			"failures":  st.Failures,
			"hit_ratio": fmt.Sprintf("%.2f%%", st.HitRatio()),
		}).Info("Sampler statistics")
	}
}
