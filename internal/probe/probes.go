package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/raainshe/homepanel/internal/cache"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/logging"
)

// SubsystemSnapshot is the per-tick view of every subsystem. A nil pointer
// field means the corresponding probe is unavailable.
type SubsystemSnapshot struct {
	TempC     *float64
	MemPct    *int
	Container ContainerState
	Players   Players
	Torrent   *TorrentSummary
	IP        string
	TakenAt   time.Time

	// TorrentUnavailable is set when the torrent client could not be read.
	// Torrent is nil then too.
	TorrentUnavailable bool
}

// TorrentActive reports whether a download is in progress.
func (s SubsystemSnapshot) TorrentActive() bool {
	return s.Torrent != nil
}

// Probes owns the cached samplers for every subsystem.
type Probes struct {
	cfg        config.ProbesConfig
	runner     Runner
	torrents   TorrentLister
	classifier Classifier
	logger     *logging.Logger
	now        func() time.Time

	readTemp   func(ctx context.Context) (float64, error)
	readMemory func(ctx context.Context) (int, error)
	readIP     func(ctx context.Context) (string, error)

	status  *cache.Sampler[string]
	players *cache.Sampler[Players]
	torrent *cache.Sampler[*TorrentSummary]
	ip      *cache.Sampler[string]
}

// Option configures Probes
type Option func(*Probes)

// WithRunner sets the command runner used for docker and vcgencmd.
func WithRunner(r Runner) Option {
	return func(p *Probes) { p.runner = r }
}

// WithTorrentLister sets the torrent client. Without one the torrent probe
// always reports no activity.
func WithTorrentLister(l TorrentLister) Option {
	return func(p *Probes) { p.torrents = l }
}

// WithClassifier overrides the container status classification rule.
func WithClassifier(c Classifier) Option {
	return func(p *Probes) { p.classifier = c }
}

// WithClock overrides the time source for all samplers.
func WithClock(now func() time.Time) Option {
	return func(p *Probes) { p.now = now }
}

// WithLogger sets the probe logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Probes) { p.logger = logger }
}

// WithTemperatureSource replaces the sysfs/vcgencmd temperature read.
func WithTemperatureSource(f func(ctx context.Context) (float64, error)) Option {
	return func(p *Probes) { p.readTemp = f }
}

// WithMemorySource replaces the /proc/meminfo read.
func WithMemorySource(f func(ctx context.Context) (int, error)) Option {
	return func(p *Probes) { p.readMemory = f }
}

// WithIPSource replaces the interface address lookup.
func WithIPSource(f func(ctx context.Context) (string, error)) Option {
	return func(p *Probes) { p.readIP = f }
}

// New creates the probe set from configuration.
func New(cfg config.ProbesConfig, opts ...Option) *Probes {
	p := &Probes{
		cfg:    cfg,
		runner: ExecRunner{Timeout: cfg.CommandTimeout},
		classifier: Classifier{
			UpPrefix:       cfg.UpPrefix,
			StartingMarker: cfg.StartingMarker,
		},
		now: time.Now,
	}
	if p.classifier.UpPrefix == "" {
		p.classifier = DefaultClassifier
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.GetProbeLogger()
	}
	if p.readTemp == nil {
		p.readTemp = p.systemTemperature
	}
	if p.readMemory == nil {
		p.readMemory = p.systemMemory
	}
	if p.readIP == nil {
		p.readIP = PrimaryIPv4
	}

	samplerOpts := []cache.Option{cache.WithClock(p.now), cache.WithSingleFlight()}
	p.status = cache.NewSampler[string]("container_status", samplerOpts...)
	p.players = cache.NewSampler[Players]("container_players", samplerOpts...)
	p.torrent = cache.NewSampler[*TorrentSummary]("torrent_summary", samplerOpts...)
	p.ip = cache.NewSampler[string]("ip_address", samplerOpts...)
	return p
}

func (p *Probes) systemTemperature(ctx context.Context) (float64, error) {
	t, err := ReadTemperature(p.cfg.ThermalPath)
	if err == nil {
		return t, nil
	}
	out, vErr := p.runner.Run(ctx, "vcgencmd", "measure_temp")
	if vErr != nil {
		return 0, errors.Join(err, vErr)
	}
	return ParseVcgencmdTemp(out)
}

func (p *Probes) systemMemory(context.Context) (int, error) {
	info, err := ReadMemInfo(p.cfg.MeminfoPath)
	if err != nil {
		return 0, err
	}
	return info.UsedPercent(), nil
}

// Temperature reads the CPU temperature in degrees Celsius. It is never
// cached.
func (p *Probes) Temperature(ctx context.Context) (float64, error) {
	t, err := p.readTemp(ctx)
	if err != nil {
		return 0, fmt.Errorf("temperature: %w: %w", cache.ErrUnavailable, err)
	}
	return t, nil
}

// Memory reads the used memory percentage. It is never cached.
func (p *Probes) Memory(ctx context.Context) (int, error) {
	m, err := p.readMemory(ctx)
	if err != nil {
		return 0, fmt.Errorf("memory: %w: %w", cache.ErrUnavailable, err)
	}
	return m, nil
}

// ContainerStatus returns the raw status text of the game-server container.
func (p *Probes) ContainerStatus(ctx context.Context) (string, error) {
	return p.status.Get(ctx, p.cfg.ContainerTTL, func(ctx context.Context) (string, error) {
		return DockerStatus(ctx, p.runner, p.cfg.ContainerName)
	})
}

// Container classifies the game-server container. A failed probe reads as
// Off together with the error.
func (p *Probes) Container(ctx context.Context) (ContainerState, error) {
	status, err := p.ContainerStatus(ctx)
	if err != nil {
		return ContainerOff, err
	}
	return p.classifier.Classify(status), nil
}

// Players lists online players. The rcon call is only made while the
// container is On; otherwise an empty list is returned.
func (p *Probes) Players(ctx context.Context) (Players, error) {
	state, err := p.Container(ctx)
	if err != nil {
		return Players{Names: []string{}}, err
	}
	return p.playersFor(ctx, state)
}

func (p *Probes) playersFor(ctx context.Context, state ContainerState) (Players, error) {
	if state != ContainerOn {
		return Players{Names: []string{}}, nil
	}
	players, err := p.players.Get(ctx, p.cfg.PlayersTTL, func(ctx context.Context) (Players, error) {
		return DockerPlayers(ctx, p.runner, p.cfg.ContainerName)
	})
	if err != nil {
		return Players{Names: []string{}}, err
	}
	return players, nil
}

// Torrent summarizes the torrent client. nil means nothing is downloading.
func (p *Probes) Torrent(ctx context.Context) (*TorrentSummary, error) {
	if p.torrents == nil {
		return nil, nil
	}
	return p.torrent.Get(ctx, p.cfg.TorrentTTL, func(ctx context.Context) (*TorrentSummary, error) {
		return FetchTorrentSummary(ctx, p.torrents)
	})
}

// IP returns the host's primary IPv4 address.
func (p *Probes) IP(ctx context.Context) (string, error) {
	return p.ip.Get(ctx, p.cfg.IPTTL, p.readIP)
}

// Snapshot samples every subsystem concurrently. Failures and panics in a
// probe leave its field unavailable; Snapshot itself never fails.
func (p *Probes) Snapshot(ctx context.Context) SubsystemSnapshot {
	snap := SubsystemSnapshot{
		Players: Players{Names: []string{}},
		TakenAt: p.now(),
	}

	var (
		mu   sync.Mutex
		errs = map[string]error{}
	)
	fail := func(name string, err error) {
		mu.Lock()
		errs[name] = err
		mu.Unlock()
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		if t, err := p.Temperature(ctx); err != nil {
			fail("temperature", err)
		} else {
			snap.TempC = &t
		}
	})
	wg.Go(func() {
		if m, err := p.Memory(ctx); err != nil {
			fail("memory", err)
		} else {
			snap.MemPct = &m
		}
	})
	wg.Go(func() {
		state, err := p.Container(ctx)
		if err != nil {
			fail("container", err)
			return
		}
		snap.Container = state
		players, err := p.playersFor(ctx, state)
		if err != nil {
			fail("players", err)
			return
		}
		snap.Players = players
	})
	wg.Go(func() {
		if t, err := p.Torrent(ctx); err != nil {
			fail("torrent", err)
			snap.TorrentUnavailable = true
		} else {
			snap.Torrent = t
		}
	})
	wg.Go(func() {
		if ip, err := p.IP(ctx); err != nil {
			fail("ip", err)
		} else {
			snap.IP = ip
		}
	})

	if recovered := wg.WaitAndRecover(); recovered != nil {
		p.logger.WithField("panic", recovered.String()).Error("Probe panicked")
	}

	for name, err := range errs {
		p.logger.WithFields(map[string]interface{}{
			"probe": name,
			"error": err.Error(),
		}).Debug("Probe unavailable")
	}

	return snap
}

// Stats returns the counters of every cached sampler.
func (p *Probes) Stats() []cache.StatsSnapshot {
	return []cache.StatsSnapshot{
		p.status.Stats(),
		p.players.Stats(),
		p.torrent.Stats(),
		p.ip.Stats(),
	}
}
