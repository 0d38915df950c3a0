package interp

import (
	"fmt"
	"path"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultSearchRoot is the virtual directory bare source names resolve
// against.
const DefaultSearchRoot = "/src/lib"

// Config defines the embedding configuration for an interpreter.
type Config struct {
	// Engine names the VM implementation to drive; defaults to the
	// reference "shale" engine.
	Engine string `mapstructure:"engine"`

	// SearchRoot is the virtual directory require and load resolve bare
	// names against. Must be absolute.
	SearchRoot string `mapstructure:"search_root"`
}

// Default fills unset fields with their defaults.
func (cfg *Config) Default() {
	if cfg.Engine == "" {
		cfg.Engine = "shale"
	}
	if cfg.SearchRoot == "" {
		cfg.SearchRoot = DefaultSearchRoot
	}
}

// Validate validates the configuration
func (cfg *Config) Validate() error {
	if cfg.SearchRoot != "" && !path.IsAbs(cfg.SearchRoot) {
		return fmt.Errorf("search_root must be absolute, got %q", cfg.SearchRoot)
	}
	return nil
}

// DecodeConfig builds a Config from a generic map, the shape embedders pass
// through their own configuration files.
func DecodeConfig(raw map[string]any) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("shale: error decoding interpreter config: %w", err)
	}
	cfg.Default()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
