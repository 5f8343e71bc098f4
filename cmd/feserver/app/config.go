package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deepspace-ra/kband-frontend/internal/calibration"
	"github.com/deepspace-ra/kband-frontend/internal/frontend"
)

const (
	ModeSimulated Mode = "simulated"
	ModeHardware  Mode = "hardware"
)

var validModes = map[Mode]struct{}{
	ModeSimulated: {},
	ModeHardware:  {},
}

// Mode selects whether the front end is backed by synthesized physics or a
// DAQ adapter. Fixed for the lifetime of the process.
type Mode string

func (m Mode) String() string {
	return string(m)
}

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Server   ServerConfig  `yaml:"server"`
	Receiver Receiver      `yaml:"receiver"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// ServerConfig represents the control server settings
type ServerConfig struct {
	Listen   string `yaml:"listen"`
	Instance string `yaml:"instance"`
	MDNS     bool   `yaml:"mdns"`
}

// Receiver represents front-end settings
type Receiver struct {
	Mode Mode `yaml:"mode"`

	// CalibrationFile optionally replaces the built-in calibration set.
	CalibrationFile string `yaml:"calibrationFile"`

	// MinicalReads is how many meter samples calibration procedures average
	// per receiver state.
	MinicalReads int `yaml:"minicalReads"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads and validates the application configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	config := Config{
		Settings: Settings{LogLevel: "info"},
		Server: ServerConfig{
			Listen:   ":50000",
			Instance: "K-band front end",
			MDNS:     true,
		},
		Receiver: Receiver{
			Mode:         ModeSimulated,
			MinicalReads: calibration.DefaultReads,
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}

	if _, ok := validModes[config.Receiver.Mode]; !ok {
		return nil, fmt.Errorf("unknown receiver mode '%s'", config.Receiver.Mode)
	}
	if _, err = config.LogLevel(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return 0, fmt.Errorf("unknown log level '%s'", c.Settings.LogLevel)
	}
	return level, nil
}

// Calibration returns the receiver calibration: the built-in set, or the
// configured file merged over it.
func (c *Config) Calibration() (frontend.Calibration, error) {
	cal := frontend.DefaultCalibration()
	if c.Receiver.CalibrationFile == "" {
		return cal, nil
	}

	data, err := os.ReadFile(c.Receiver.CalibrationFile)
	if err != nil {
		return cal, fmt.Errorf("reading calibration file: %w", err)
	}
	if err = yaml.Unmarshal(data, &cal); err != nil {
		return cal, fmt.Errorf("parsing calibration file: %w", err)
	}
	if err = cal.Validate(); err != nil {
		return cal, fmt.Errorf("invalid calibration file: %w", err)
	}
	return cal, nil
}
