package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the engine process configuration.
type Config struct {
	LogLevel  string    `yaml:"log_level"`
	FrameRate int       `yaml:"frame_rate"`
	Inspector Inspector `yaml:"inspector"`
}

// Inspector configures the diagnostic websocket endpoint.
type Inspector struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:  "info",
		FrameRate: 60,
		Inspector: Inspector{
			Enabled: false,
			Addr:    "localhost:8099",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "config: read")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(err, "config: parse")
	}
	if cfg.FrameRate < 0 {
		return cfg, errors.Errorf("config: negative frame_rate %d", cfg.FrameRate)
	}
	return cfg, nil
}
