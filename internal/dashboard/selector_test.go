package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/probe"
)

func testSelector() Selector {
	return Selector{
		Title:          "Homepanel",
		RotationPeriod: 6 * time.Second,
		ActivityWindow: 20 * time.Second,
		Width:          20,
	}
}

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func kinds(pool []Candidate) []Kind {
	out := make([]Kind, len(pool))
	for i, c := range pool {
		out[i] = c.Kind
	}
	return out
}

func fullSnapshot() probe.SubsystemSnapshot {
	temp, mem := 48.3, 42
	return probe.SubsystemSnapshot{
		TempC:     &temp,
		MemPct:    &mem,
		Container: probe.ContainerStarting,
		Players:   probe.Players{Names: []string{}},
		Torrent:   &probe.TorrentSummary{Name: "ubuntu-24.04-desktop-amd64.iso", Progress: 37.5, DlRate: 1500000, UlRate: 2000, Count: 2},
		IP:        "192.168.1.20",
	}
}

func TestPoolMinimal(t *testing.T) {
	pool := testSelector().Pool(probe.SubsystemSnapshot{})
	assert.Equal(t, []Kind{KindSystem, KindTips}, kinds(pool))
}

func TestPoolStartingWithTorrent(t *testing.T) {
	pool := testSelector().Pool(fullSnapshot())
	assert.Equal(t, []Kind{KindInit, KindTorrent, KindTorrent, KindSystem, KindTips}, kinds(pool))
}

func TestPoolOnWithPlayers(t *testing.T) {
	snap := probe.SubsystemSnapshot{
		Container: probe.ContainerOn,
		Players:   probe.Players{Count: 2, Names: []string{"alice", "bob"}},
	}
	pool := testSelector().Pool(snap)
	assert.Equal(t, []Kind{KindPlayers, KindSystem, KindTips}, kinds(pool))
	assert.Equal(t, "Online: 2", pool[0].Screen.Line1)
	assert.Equal(t, "alice", pool[0].Screen.Line2)
}

func TestRotationScenario(t *testing.T) {
	s := testSelector()
	c := s.Select(Input{Snapshot: fullSnapshot()}, at(18))
	assert.Equal(t, KindSystem, c.Kind)
	assert.Equal(t, Screen{
		Title: "System",
		Clock: "00:00",
		Line1: "IP 192.168.1.20",
		Line2: "Temp 48.3C",
		Line3: "Mem 42%",
	}, c.Screen)
}

func TestRotationIndex(t *testing.T) {
	period := 6 * time.Second
	assert.Equal(t, 3, RotationIndex(at(18), period, 5))
	assert.Equal(t, 3, RotationIndex(at(23), period, 5))
	assert.Equal(t, 4, RotationIndex(at(24), period, 5))
	assert.Equal(t, 0, RotationIndex(at(30), period, 5))
	assert.Equal(t, 0, RotationIndex(at(30), period, 0))
}

func TestRotationStableWithinPeriod(t *testing.T) {
	s := testSelector()
	snap := fullSnapshot()
	first := s.Select(Input{Snapshot: snap}, at(12))
	for sec := int64(12); sec < 18; sec++ {
		assert.Equal(t, first.Kind, s.Select(Input{Snapshot: snap}, at(sec)).Kind)
	}
}

func TestTorrentScreen(t *testing.T) {
	s := testSelector()
	c := s.Select(Input{Snapshot: fullSnapshot()}, at(6))
	require.Equal(t, KindTorrent, c.Kind)
	assert.Equal(t, "Torrent", c.Screen.Title)
	assert.Equal(t, "ubuntu-24.04-desktop", c.Screen.Line1)
	assert.Equal(t, "37.5% (2 active)", c.Screen.Line2)
	assert.Equal(t, "D1.5 MB/s U2.0 kB/s", c.Screen.Line3)
}

func TestInitScreen(t *testing.T) {
	c := testSelector().Select(Input{Snapshot: fullSnapshot()}, at(0))
	require.Equal(t, KindInit, c.Kind)
	assert.Equal(t, "Initializing...", c.Screen.Line1)
}

func TestAlertBeatsActivity(t *testing.T) {
	s := testSelector()
	a := &alert.Alert{Key: "TEMP 75.0C", Conditions: []string{"TEMP 75.0C"}}
	c := s.Select(Input{
		Snapshot:     fullSnapshot(),
		Alert:        a,
		ActivityText: "/ping user",
		ActivityAge:  time.Second,
	}, at(18))
	assert.Equal(t, KindAlert, c.Kind)
	assert.Equal(t, "ALERT", c.Screen.Title)
	assert.Equal(t, "TEMP 75.0C", c.Screen.Line1)
}

func TestActivityWindow(t *testing.T) {
	s := testSelector()
	in := Input{Snapshot: fullSnapshot(), ActivityText: "/ping someone-with-a-long-name", ActivityAge: 15 * time.Second}

	c := s.Select(in, at(15))
	require.Equal(t, KindActivity, c.Kind)
	assert.Equal(t, "Last cmd", c.Screen.Title)
	assert.Equal(t, "/ping someone-with-a", c.Screen.Line1)
	assert.Equal(t, "15s ago", c.Screen.Line2)

	in.ActivityAge = 25 * time.Second
	c = s.Select(in, at(25))
	assert.NotEqual(t, KindActivity, c.Kind)
}

func TestSystemScreenUnavailable(t *testing.T) {
	c := testSelector().Select(Input{}, at(0))
	require.Equal(t, KindSystem, c.Kind)
	assert.Equal(t, "IP --", c.Screen.Line1)
	assert.Equal(t, "Temp --", c.Screen.Line2)
	assert.Equal(t, "Mem --", c.Screen.Line3)
}

func TestTitleTruncated(t *testing.T) {
	s := testSelector()
	s.Title = "My Home Server"
	c := s.Select(Input{}, at(6))
	require.Equal(t, KindTips, c.Kind)
	assert.Equal(t, "My Home Se", c.Screen.Title)
	assert.Equal(t, "/minecraft /torrents", c.Screen.Line2)
}
