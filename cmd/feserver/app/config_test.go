package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfigFile(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Listen != ":50000" {
		t.Errorf("listen: got %q, want :50000", config.Server.Listen)
	}
	if !config.Server.MDNS {
		t.Error("mdns should default to enabled")
	}
	if config.Receiver.Mode != ModeSimulated {
		t.Errorf("mode: got %q, want %q", config.Receiver.Mode, ModeSimulated)
	}
	if config.Receiver.MinicalReads != 5 {
		t.Errorf("minical reads: got %d, want 5", config.Receiver.MinicalReads)
	}

	level, err := config.LogLevel()
	if err != nil {
		t.Fatalf("LogLevel failed: %v", err)
	}
	if level != slog.LevelInfo {
		t.Errorf("log level: got %v, want info", level)
	}
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfigFile(t, `
settings:
  logLevel: debug
server:
  listen: 127.0.0.1:6001
  instance: DSS-43 K-band
receiver:
  mode: hardware
  minicalReads: 10
storage:
  dataDirectory: /var/lib/kfe
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Listen != "127.0.0.1:6001" {
		t.Errorf("listen: got %q", config.Server.Listen)
	}
	if config.Server.Instance != "DSS-43 K-band" {
		t.Errorf("instance: got %q", config.Server.Instance)
	}
	if config.Receiver.Mode != ModeHardware {
		t.Errorf("mode: got %q, want %q", config.Receiver.Mode, ModeHardware)
	}
	if config.Receiver.MinicalReads != 10 {
		t.Errorf("minical reads: got %d, want 10", config.Receiver.MinicalReads)
	}
	if config.Storage.DataDirectory != "/var/lib/kfe" {
		t.Errorf("data directory: got %q", config.Storage.DataDirectory)
	}

	level, err := config.LogLevel()
	if err != nil {
		t.Fatalf("LogLevel failed: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", level)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", ":\n:"},
		{"unknown mode", "receiver:\n  mode: emulated\n"},
		{"unknown log level", "settings:\n  logLevel: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfigFile(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCalibrationOverride(t *testing.T) {
	calPath := filepath.Join(t.TempDir(), "cal.yaml")
	if err := os.WriteFile(calPath, []byte(`
ambientLoadK: 315
noiseDiode:
  maxK: 390
  attenuationDB: -9.86
`), 0o644); err != nil {
		t.Fatalf("Failed to write calibration file: %v", err)
	}

	config, err := LoadConfig(writeConfigFile(t, "receiver:\n  calibrationFile: "+calPath+"\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cal, err := config.Calibration()
	if err != nil {
		t.Fatalf("Calibration failed: %v", err)
	}
	if cal.AmbientLoadK != 315 {
		t.Errorf("ambient load: got %v, want 315", cal.AmbientLoadK)
	}
	if cal.NoiseDiode.MaxK != 390 {
		t.Errorf("diode max: got %v, want 390", cal.NoiseDiode.MaxK)
	}

	// untouched constants keep their built-in values
	if cal.Channels[1]["E"].ReceiverTempK != 19.65 {
		t.Errorf("receiver temp: got %v, want 19.65", cal.Channels[1]["E"].ReceiverTempK)
	}
}

func TestCalibrationDefault(t *testing.T) {
	config, err := LoadConfig(writeConfigFile(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	cal, err := config.Calibration()
	if err != nil {
		t.Fatalf("Calibration failed: %v", err)
	}
	if err := cal.Validate(); err != nil {
		t.Errorf("built-in calibration invalid: %v", err)
	}
}
