//go:build linux

package display

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/dashboard"
)

// i2cSlave is the I2C_SLAVE ioctl request from linux/i2c-dev.h.
const i2cSlave = 0x0703

const (
	ssdControlCommand = 0x00
	ssdControlData    = 0x40
)

// initSequence configures a 128x64 panel with horizontal addressing.
var initSequence = []byte{
	0xAE,       // display off
	0xD5, 0x80, // clock divide
	0xA8, 0x3F, // multiplex 64
	0xD3, 0x00, // display offset
	0x40,       // start line 0
	0x8D, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xA1,       // segment remap
	0xC8,       // COM scan descending
	0xDA, 0x12, // COM pins
	0x81, 0xCF, // contrast
	0xD9, 0xF1, // precharge
	0xDB, 0x40, // VCOM detect
	0xA4,       // resume from RAM
	0xA6,       // normal, not inverted
	0xAF,       // display on
}

// SSD1306 drives an SSD1306 OLED over /dev/i2c-N.
type SSD1306 struct {
	mu  sync.Mutex
	dev io.WriteCloser
}

// i2cFile is an open /dev/i2c-N descriptor.
type i2cFile int

func (f i2cFile) Write(b []byte) (int, error) { return unix.Write(int(f), b) }
func (f i2cFile) Close() error                { return unix.Close(int(f)) }

// OpenSSD1306 opens the I2C bus, selects the panel address and initializes
// the controller.
func OpenSSD1306(bus, addr int) (*SSD1306, error) {
	path := fmt.Sprintf("/dev/i2c-%d", bus)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to select i2c address 0x%02x: %w", addr, err)
	}

	d := &SSD1306{dev: i2cFile(fd)}
	if err := d.command(initSequence...); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to initialize ssd1306: %w", err)
	}
	return d, nil
}

func (d *SSD1306) write(b []byte) error {
	n, err := d.dev.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short i2c write: %d of %d bytes", n, len(b))
	}
	return nil
}

func (d *SSD1306) command(cmds ...byte) error {
	for _, c := range cmds {
		if err := d.write([]byte{ssdControlCommand, c}); err != nil {
			return err
		}
	}
	return nil
}

// Draw renders the screen and pushes the whole frame buffer.
func (d *SSD1306) Draw(s dashboard.Screen) error {
	buf := Pack(Render(s))

	d.mu.Lock()
	defer d.mu.Unlock()

	// Reset the column and page window to the full panel.
	if err := d.command(0x21, 0, Width-1, 0x22, 0, Height/8-1); err != nil {
		return err
	}
	// Many i2c adapters cap a transfer at 32 bytes.
	const chunk = 16
	for off := 0; off < len(buf); off += chunk {
		end := min(off+chunk, len(buf))
		if err := d.write(append([]byte{ssdControlData}, buf[off:end]...)); err != nil {
			return err
		}
	}
	return nil
}

func (d *SSD1306) Name() string { return config.DriverSSD1306 }

// Close turns the panel off and releases the bus.
func (d *SSD1306) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return multierr.Append(d.command(0xAE), d.dev.Close())
}
