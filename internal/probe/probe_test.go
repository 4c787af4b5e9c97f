package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raainshe/homepanel/internal/cache"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/qbittorrent"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := name
	if len(args) > 0 {
		key += " " + args[0]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, key)
	return r.outputs[key], r.errs[key]
}

func (r *fakeRunner) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == key {
			n++
		}
	}
	return n
}

type fakeLister struct {
	torrents []qbittorrent.Torrent
	err      error
	calls    int
}

func (l *fakeLister) GetTorrents(context.Context, string) ([]qbittorrent.Torrent, error) {
	l.calls++
	return l.torrents, l.err
}

func testProbesConfig() config.ProbesConfig {
	return config.Default().Probes
}

func newTestProbes(r Runner, opts ...Option) *Probes {
	base := []Option{
		WithRunner(r),
		WithLogger(logging.NewDiscard()),
		WithTemperatureSource(func(context.Context) (float64, error) { return 48.3, nil }),
		WithMemorySource(func(context.Context) (int, error) { return 42, nil }),
		WithIPSource(func(context.Context) (string, error) { return "192.168.1.20", nil }),
	}
	return New(testProbesConfig(), append(base, opts...)...)
}

func dockerLine(name, status string) string {
	return `{"Names":"` + name + `","Status":"` + status + `","State":"running"}`
}

func TestClassifier(t *testing.T) {
	tests := []struct {
		status string
		want   ContainerState
	}{
		{"", ContainerOff},
		{"   ", ContainerOff},
		{"Up 10 seconds (health: starting)", ContainerStarting},
		{"Up 3 hours (healthy)", ContainerOn},
		{"Up 2 minutes", ContainerOn},
		{"Exited (0) 5 minutes ago", ContainerOff},
		{"Created", ContainerOff},
		{"Restarting (1) 3 seconds ago", ContainerOff},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultClassifier.Classify(tt.status))
		})
	}
}

func TestClassifierCustomMarkers(t *testing.T) {
	c := Classifier{UpPrefix: "running", StartingMarker: "warming"}
	assert.Equal(t, ContainerStarting, c.Classify("running (warming)"))
	assert.Equal(t, ContainerOn, c.Classify("running"))
	assert.Equal(t, ContainerOff, c.Classify("Up 2 minutes"))
}

func TestParsePlayerList(t *testing.T) {
	p, err := ParsePlayerList("There are 2 of a max of 20 players online: alice, bob")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, []string{"alice", "bob"}, p.Names)

	p, err = ParsePlayerList("There are 0 of a max 20 players online:")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Count)
	assert.NotNil(t, p.Names)
	assert.Empty(t, p.Names)

	_, err = ParsePlayerList("Error: connection refused")
	assert.Error(t, err)
}

func TestParseDockerPS(t *testing.T) {
	out := dockerLine("other", "Up 1 hour") + "\n" + dockerLine("mc-server", "Up 5 minutes (healthy)")
	assert.Equal(t, "Up 5 minutes (healthy)", parseDockerPS(out, "mc-server"))
	assert.Equal(t, "", parseDockerPS("", "mc-server"))
	assert.Equal(t, "", parseDockerPS("not json", "mc-server"))
}

func TestParseMemInfo(t *testing.T) {
	content := []byte("MemTotal:        1000000 kB\nMemFree:          100000 kB\nMemAvailable:     580000 kB\nBuffers:           10000 kB\nCached:           200000 kB\n")
	info, err := ParseMemInfo(content)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), info.MemTotal)
	assert.Equal(t, 42, info.UsedPercent())

	legacy := MemInfo{MemTotal: 1000, MemFree: 100, Buffers: 50, Cached: 350}
	assert.Equal(t, 50, legacy.UsedPercent())

	_, err = ParseMemInfo([]byte("Bogus: 1 kB\n"))
	assert.Error(t, err)
}

func TestReadTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("48312\n"), 0o644))

	temp, err := ReadTemperature(path)
	require.NoError(t, err)
	assert.InDelta(t, 48.312, temp, 0.0001)

	_, err = ReadTemperature(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParseVcgencmdTemp(t *testing.T) {
	temp, err := ParseVcgencmdTemp("temp=48.3'C")
	require.NoError(t, err)
	assert.InDelta(t, 48.3, temp, 0.0001)

	_, err = ParseVcgencmdTemp("garbage")
	assert.Error(t, err)
}

func TestTemperatureFallsBackToVcgencmd(t *testing.T) {
	r := newFakeRunner()
	r.outputs["vcgencmd measure_temp"] = "temp=51.0'C"

	cfg := testProbesConfig()
	cfg.ThermalPath = filepath.Join(t.TempDir(), "missing")
	p := New(cfg, WithRunner(r), WithLogger(logging.NewDiscard()))

	temp, err := p.Temperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 51.0, temp, 0.0001)
}

func TestTemperatureUnavailable(t *testing.T) {
	p := newTestProbes(newFakeRunner(), WithTemperatureSource(func(context.Context) (float64, error) {
		return 0, errors.New("no sensor")
	}))

	_, err := p.Temperature(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cache.ErrUnavailable))
}

func TestPlayersShortCircuitWhenOff(t *testing.T) {
	r := newFakeRunner()
	r.outputs["docker ps"] = ""
	p := newTestProbes(r)

	state, err := p.Container(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ContainerOff, state)

	players, err := p.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, players.Count)
	assert.NotNil(t, players.Names)
	assert.Empty(t, players.Names)
	assert.Zero(t, r.count("docker exec"))
}

func TestPlayersWhenOn(t *testing.T) {
	r := newFakeRunner()
	r.outputs["docker ps"] = dockerLine("mc-server", "Up 2 hours (healthy)")
	r.outputs["docker exec"] = "There are 1 of a max of 20 players online: steve"
	p := newTestProbes(r)

	players, err := p.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, players.Count)
	assert.Equal(t, []string{"steve"}, players.Names)

	// Cached within the players TTL.
	_, err = p.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.count("docker exec"))
	assert.Equal(t, 1, r.count("docker ps"))
}

func TestContainerStatusCachedUntilTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	r := newFakeRunner()
	r.outputs["docker ps"] = dockerLine("mc-server", "Up 2 hours")
	p := newTestProbes(r, WithClock(clock))

	ctx := context.Background()
	_, err := p.Container(ctx)
	require.NoError(t, err)

	now = now.Add(4 * time.Second)
	_, err = p.Container(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.count("docker ps"))

	now = now.Add(2 * time.Second)
	_, err = p.Container(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.count("docker ps"))
}

func TestSummarize(t *testing.T) {
	assert.Nil(t, Summarize(nil))
	assert.Nil(t, Summarize([]qbittorrent.Torrent{{Name: "done", State: qbittorrent.StateUploading, Progress: 1}}))

	summary := Summarize([]qbittorrent.Torrent{
		{Name: "slow", State: qbittorrent.StateDownloading, Progress: 0.1, Dlspeed: 100},
		{Name: "fast", State: qbittorrent.StateDownloading, Progress: 0.5, Dlspeed: 2048, Upspeed: 64},
		{Name: "seed", State: qbittorrent.StateUploading, Progress: 1, Upspeed: 9999},
		{Name: "stalled", State: qbittorrent.StateStalledDL, Progress: 0.2},
	})
	require.NotNil(t, summary)
	assert.Equal(t, "fast", summary.Name)
	assert.InDelta(t, 50.0, summary.Progress, 0.0001)
	assert.Equal(t, int64(2048), summary.DlRate)
	assert.Equal(t, int64(64), summary.UlRate)
	assert.Equal(t, 3, summary.Count)
}

func TestTorrentWithoutLister(t *testing.T) {
	p := newTestProbes(newFakeRunner())
	summary, err := p.Torrent(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestSnapshotStarting(t *testing.T) {
	r := newFakeRunner()
	r.outputs["docker ps"] = dockerLine("mc-server", "Up 10 seconds (health: starting)")
	lister := &fakeLister{torrents: []qbittorrent.Torrent{
		{Name: "ubuntu.iso", State: qbittorrent.StateDownloading, Progress: 0.25, Dlspeed: 1 << 20},
	}}
	p := newTestProbes(r, WithTorrentLister(lister))

	snap := p.Snapshot(context.Background())
	assert.Equal(t, ContainerStarting, snap.Container)
	require.NotNil(t, snap.TempC)
	assert.InDelta(t, 48.3, *snap.TempC, 0.0001)
	require.NotNil(t, snap.MemPct)
	assert.Equal(t, 42, *snap.MemPct)
	assert.True(t, snap.TorrentActive())
	assert.Equal(t, "ubuntu.iso", snap.Torrent.Name)
	assert.Equal(t, "192.168.1.20", snap.IP)
	assert.Empty(t, snap.Players.Names)
	assert.Zero(t, r.count("docker exec"))
}

func TestSnapshotPartialData(t *testing.T) {
	r := newFakeRunner()
	r.errs["docker ps"] = errors.New("docker: command not found")
	lister := &fakeLister{err: errors.New("connection refused")}
	p := newTestProbes(r,
		WithTorrentLister(lister),
		WithMemorySource(func(context.Context) (int, error) { return 0, errors.New("no meminfo") }),
		WithTemperatureSource(func(context.Context) (float64, error) { panic("sensor driver crashed") }),
	)

	snap := p.Snapshot(context.Background())
	assert.Nil(t, snap.TempC)
	assert.Nil(t, snap.MemPct)
	assert.Nil(t, snap.Torrent)
	assert.True(t, snap.TorrentUnavailable)
	assert.Equal(t, ContainerOff, snap.Container)
	assert.Equal(t, "192.168.1.20", snap.IP)
}

func TestStatsNames(t *testing.T) {
	p := newTestProbes(newFakeRunner())
	var names []string
	for _, st := range p.Stats() {
		names = append(names, st.Name)
	}
	assert.Equal(t, "container_status,container_players,torrent_summary,ip_address", strings.Join(names, ","))
}
