// Package display turns dashboard screens into pixels on a panel, a terminal
// or the log.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/logging"
)

// Drawer is the draw primitive behind the throttle.
type Drawer interface {
	Draw(screen dashboard.Screen) error
	Name() string
	Close() error
}

// New opens the drawer selected by cfg.Driver. out is used by the terminal
// driver; nil means stdout.
func New(cfg config.DisplayConfig, out io.Writer) (Drawer, error) {
	switch cfg.Driver {
	case config.DriverSSD1306:
		d, err := OpenSSD1306(cfg.I2CBus, cfg.I2CAddress)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.DriverTerminal:
		if out == nil {
			out = os.Stdout
		}
		return NewTerminal(out), nil
	case config.DriverLog:
		return NewLogDrawer(logging.GetDisplayLogger()), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", cfg.Driver)
	}
}

// LogDrawer writes each frame to the log. Useful on hosts without a panel.
type LogDrawer struct {
	logger *logging.Logger
}

// NewLogDrawer creates a drawer that logs frames at Info level.
func NewLogDrawer(logger *logging.Logger) *LogDrawer {
	return &LogDrawer{logger: logger}
}

func (d *LogDrawer) Draw(s dashboard.Screen) error {
	d.logger.WithFields(map[string]interface{}{
		"title": s.Title,
		"clock": s.Clock,
		"line1": s.Line1,
		"line2": s.Line2,
		"line3": s.Line3,
	}).Info("Frame")
	return nil
}

func (d *LogDrawer) Name() string { return config.DriverLog }

func (d *LogDrawer) Close() error { return nil }
