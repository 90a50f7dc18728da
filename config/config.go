// Package config loads the capture daemon's tunables from a YAML file,
// the same way deviceid.go loads tocalls.yaml: read the whole file, then
// gopkg.in/yaml.v3 unmarshal it into a typed struct.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the capture daemon and its supporting
// packages need at startup.
type Config struct {
	// ScratchBufferHint is the number of bytes the scratch buffer for a
	// newly discovered stream is pre-grown to, avoiding the first few
	// reallocations growCapture would otherwise do.
	ScratchBufferHint uint32 `yaml:"scratch_buffer_hint"`

	// AllowSkip is the hook's default allow-skip policy at startup.
	AllowSkip bool `yaml:"allow_skip"`

	// TransportCapacity bounds how many undrained packets the transport
	// buffer queues; once full, each new packet drops the oldest queued
	// one. 0 means unbounded.
	TransportCapacity int `yaml:"transport_capacity"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	Indicator IndicatorConfig `yaml:"indicator"`
}

// DiscoveryConfig governs mDNS advertisement and sound-subsystem hot-plug
// monitoring.
type DiscoveryConfig struct {
	Advertise   bool   `yaml:"advertise"`
	ServiceName string `yaml:"service_name"`
	Port        int    `yaml:"port"`
	WatchUdev   bool   `yaml:"watch_udev"`
}

// IndicatorConfig governs the recording-indicator GPIO line.
type IndicatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Line    int    `yaml:"line"`
}

// Default returns the tunables a daemon should start with absent a config
// file.
func Default() *Config {
	return &Config{
		ScratchBufferHint: 4096,
		AllowSkip:         true,
		TransportCapacity: 0,
		Discovery: DiscoveryConfig{
			Advertise:   true,
			ServiceName: "audiohook",
			Port:        9876,
			WatchUdev:   true,
		},
		Indicator: IndicatorConfig{
			Enabled: false,
			Chip:    "gpiochip0",
			Line:    17,
		},
	}
}

// Load reads and parses path, overlaying it onto Default so a file only
// needs to mention the tunables it wants to change.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
