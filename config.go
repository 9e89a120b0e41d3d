package bundlebase

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the run configuration for the bb tool.  All fields have
// working defaults; a missing config file is not an error.
type Config struct {
	Gateway  string `toml:"gateway"`
	SpoolDir string `toml:"spool_dir"`
	Capacity int    `toml:"capacity"`  // item channel capacity
	MaxDepth int    `toml:"max_depth"` // bundle nesting limit
}

// LoadConfig reads a TOML config from path.  An empty path or a
// missing file yields the defaults.
func LoadConfig(path string) (cfg Config, err error) {
	if path != "" {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err == nil {
			if err = toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config parse failed (%s): %w", path, err)
			}
		}
		err = nil
	}
	if cfg.Gateway == "" {
		cfg.Gateway = DefaultGateway
	}
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = "spool"
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return
}
