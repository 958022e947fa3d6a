package see

import (
	"flag"
	"io"
	"os"
)

// Config represents configuration for see.
type Config struct {
	// W and H are the size (mm) of the visualization area.
	W float64
	H float64
	// Output receives the encoded messages, one line per cycle.
	Output io.Writer
}

var defaultConfig = Config{
	W:      4000,
	H:      4000,
	Output: os.Stdout,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.W, "see-w", defaultConfig.W, "Width (mm) of visualization area")
	flag.Float64Var(&defaultConfig.H, "see-h", defaultConfig.H, "Height (mm) of visualization area")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewAdapter creates adapter from config.
func (c *Config) NewAdapter() *Adapter {
	return NewAdapter(c)
}
