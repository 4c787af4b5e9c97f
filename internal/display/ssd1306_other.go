//go:build !linux

package display

import (
	"errors"

	"github.com/raainshe/homepanel/internal/dashboard"
)

// SSD1306 is only available on Linux.
type SSD1306 struct{}

// OpenSSD1306 always fails outside Linux.
func OpenSSD1306(bus, addr int) (*SSD1306, error) {
	return nil, errors.New("ssd1306 driver requires linux i2c-dev")
}

func (d *SSD1306) Draw(dashboard.Screen) error { return errors.New("ssd1306 not supported") }

func (d *SSD1306) Name() string { return "ssd1306" }

func (d *SSD1306) Close() error { return nil }
