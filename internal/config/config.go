package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when no flag is given.
const EnvConfigPath = "CHAINTOUR_CONFIG"

type Config struct {
	Version int `yaml:"version"`
	Tour    struct {
		Name            string `yaml:"name"`
		Catalog         string `yaml:"catalog"`
		DefaultScenario string `yaml:"default_scenario"`
	} `yaml:"tour"`
	Playback struct {
		Speed float64 `yaml:"speed"`
	} `yaml:"playback"`
	Network struct {
		UIPort int `yaml:"ui_port"`
	} `yaml:"network"`
	Log struct {
		JSON bool `yaml:"json"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Version: 1}
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *Config) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// Speed returns the initial playback speed, defaulting to 1 if not set.
func (c *Config) Speed() float64 {
	if c.Playback.Speed == 0 {
		return 1
	}
	return c.Playback.Speed
}

// Load reads a config file. An empty path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if cfg.Version != 1 {
		return nil, errors.Newf("unsupported config version: %d", cfg.Version)
	}
	if cfg.Playback.Speed < 0 {
		return nil, errors.Newf("playback.speed must be positive, got %v", cfg.Playback.Speed)
	}

	return &cfg, nil
}

// PathFromEnv returns the config path named by CHAINTOUR_CONFIG, if any.
func PathFromEnv() string {
	return os.Getenv(EnvConfigPath)
}
