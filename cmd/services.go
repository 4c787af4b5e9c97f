package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/raainshe/homepanel/internal/activity"
	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/cache"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/core"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/display"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/probe"
	"github.com/raainshe/homepanel/internal/qbittorrent"
)

// Services holds the long-lived pieces every command shares. It is filled
// by Init once flags are parsed.
type Services struct {
	Config   *config.Config
	QBClient *qbittorrent.Client
	Probes   *probe.Probes
	Activity *activity.Tracker
	Selector dashboard.Selector
}

// Init builds the probes and selector from cfg. Nothing here touches the
// network; the qBittorrent client logs in on first use.
func (s *Services) Init(cfg *config.Config) error {
	s.Config = cfg

	var probeOpts []probe.Option
	if cfg.QBittorrent.URL != "" {
		qbClient, err := qbittorrent.NewClient(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password,
			qbittorrent.WithTimeout(cfg.QBittorrent.RequestTimeout))
		if err != nil {
			return fmt.Errorf("failed to create qBittorrent client: %w", err)
		}
		s.QBClient = qbClient
		probeOpts = append(probeOpts, probe.WithTorrentLister(qbClient))
	}

	s.Probes = probe.New(cfg.Probes, probeOpts...)
	s.Activity = activity.NewTracker(time.Now)
	s.Selector = dashboard.NewSelector(cfg.Dashboard, cfg.Display.Title)
	return nil
}

// Panel is one running dashboard: alert engine, throttled drawer and the
// update loop tying them together.
type Panel struct {
	Alerts   *alert.Engine
	Drawer   display.Drawer
	Throttle *display.Throttle
	Loop     *core.UpdateLoop
}

// NewPanel wires a panel that draws through drawer and notifies through
// notifier.
func (s *Services) NewPanel(drawer display.Drawer, notifier alert.Notifier) *Panel {
	engine := alert.NewEngine(s.Config.Alert, notifier)
	throttle := display.NewThrottle(drawer, s.Config.Display.MinInterval)
	loop := core.NewUpdateLoop(s.Config.Dashboard.TickInterval, s.Probes, engine, s.Activity, s.Selector, throttle)

	return &Panel{
		Alerts:   engine,
		Drawer:   drawer,
		Throttle: throttle,
		Loop:     loop,
	}
}

// Close stops the loop and releases the drawer.
func (p *Panel) Close() error {
	p.Loop.Stop()

	stats := p.Throttle.Stats()
	loopStats := p.Loop.Stats()
	logging.GetDisplayLogger().WithFields(map[string]interface{}{
		"driver":   p.Drawer.Name(),
		"draws":    stats.Draws,
		"dropped":  stats.Dropped,
		"failures": stats.Failures,
		"ticks":    loopStats.Ticks,
		"skipped":  loopStats.Skipped,
	}).Info("Panel stopped")

	return p.Drawer.Close()
}

// Cleanup logs out of qBittorrent and reports probe cache statistics.
func (s *Services) Cleanup() {
	mainLogger := logging.GetLogger()

	if s.QBClient != nil && s.QBClient.IsAuthenticated() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.QBClient.Logout(ctx); err != nil {
			mainLogger.WithError(err).Warn("Failed to logout from qBittorrent")
		} else {
			mainLogger.Info("✅ Logged out from qBittorrent")
		}
	}

	if s.Probes != nil {
		cache.LogStats(logging.GetCacheLogger(), s.Probes.Stats()...)
	}
}
