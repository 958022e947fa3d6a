// Package serialport opens the serial port connected to the panels.
package serialport

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// Config is the serial port configuration.
type Config struct {
	Device      string
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

var defaultConfig = Config{
	Device:      "/dev/ttyS0",
	BaudRate:    115200,
	DataBits:    8,
	StopBits:    1,
	Parity:      "N",
	ReadTimeout: 100 * time.Millisecond,
}

func init() {
	if dev := os.Getenv("LINECAR_PANEL_DEVICE"); dev != "" {
		defaultConfig.Device = dev
	}
	if baud, err := strconv.Atoi(os.Getenv("LINECAR_PANEL_BAUD")); err == nil && baud > 0 {
		defaultConfig.BaudRate = baud
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "panel-dev", defaultConfig.Device, "Serial device of the panel link")
	flag.IntVar(&defaultConfig.BaudRate, "panel-baud", defaultConfig.BaudRate, "Baud rate of the panel link")
	flag.StringVar(&defaultConfig.Parity, "panel-parity", defaultConfig.Parity, "Parity of the panel link: N, E or O")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Mode converts the config to serial.Mode.
func (c *Config) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: c.BaudRate, DataBits: c.DataBits}
	if mode.BaudRate <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return nil, fmt.Errorf("invalid data bits %d", c.DataBits)
	}
	switch c.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %d", c.StopBits)
	}
	switch c.Parity {
	case "", "N", "n":
		mode.Parity = serial.NoParity
	case "E", "e":
		mode.Parity = serial.EvenParity
	case "O", "o":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", c.Parity)
	}
	return mode, nil
}

// Open opens the serial port.
func (c *Config) Open() (serial.Port, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(c.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	if c.ReadTimeout > 0 {
		if err := port.SetReadTimeout(c.ReadTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	return port, nil
}
