package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".gimbal")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

const validConfig = `
torque = true

[gimbal]
initialization_period_s = 2.0
watchdog_period_s = 0.25

[gimbal.pitch]
motor = 2
[gimbal.pitch.pid]
kp = 0.01
cmd_limit = 1.0

[gimbal.yaw]
motor = 1
[gimbal.yaw.pid]
kp = 0.02
cmd_limit = 1.0
sign = -1.0
`

// Verify a valid file populates the package globals.
func TestLoadValid(t *testing.T) {
	path := writeConfig(t, validConfig)

	if err := load(path); err != nil {
		t.Fatalf("load() returned error: %v", err)
	}

	if !Torque {
		t.Errorf("Torque = false, expected true")
	}
	if Gimbal.InitializationPeriodS != 2.0 {
		t.Errorf("InitializationPeriodS = %g, expected 2.0", Gimbal.InitializationPeriodS)
	}
	if Gimbal.WatchdogPeriodS != 0.25 {
		t.Errorf("WatchdogPeriodS = %g, expected 0.25", Gimbal.WatchdogPeriodS)
	}
	if Gimbal.Pitch.Motor != 2 || Gimbal.Yaw.Motor != 1 {
		t.Errorf("motor ports = (%d, %d), expected (2, 1)", Gimbal.Pitch.Motor, Gimbal.Yaw.Motor)
	}
	if Gimbal.Yaw.PID.Sign != -1 {
		t.Errorf("yaw sign = %g, expected -1", Gimbal.Yaw.PID.Sign)
	}
}

// Verify the embedded default config parses and validates.
func TestEmbeddedDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".gimbal")
	if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
		t.Fatalf("failed to write default config: %v", err)
	}

	if err := load(path); err != nil {
		t.Fatalf("embedded default config is invalid: %v", err)
	}
	if Gimbal.Pitch.Motor == Gimbal.Yaw.Motor {
		t.Errorf("embedded default assigns both axes to port %d", Gimbal.Pitch.Motor)
	}
}

// Verify the validation rejections, one broken field per case.
func TestLoadRejections(t *testing.T) {
	tests := []struct {
		name    string
		replace string
		with    string
		wantErr string
	}{
		{"port collision", "motor = 1", "motor = 2", "both select motor port"},
		{"bad motor port", "motor = 1", "motor = 3", "must be 1 or 2"},
		{"zero watchdog", "watchdog_period_s = 0.25", "watchdog_period_s = 0", "watchdog_period_s"},
		{"negative settling", "initialization_period_s = 2.0", "initialization_period_s = -1", "initialization_period_s"},
		{"bad sign", "sign = -1.0", "sign = 0.5", "sign"},
	}

	for _, tt := range tests {
		content := strings.Replace(validConfig, tt.replace, tt.with, 1)
		path := writeConfig(t, content)

		err := load(path)
		if err == nil {
			t.Errorf("%s: load() accepted an invalid config", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

// Verify an unparsable file is reported with its path.
func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "[gimbal\nbroken")

	err := load(path)
	if err == nil {
		t.Fatalf("load() accepted a broken TOML file")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not mention the file path", err)
	}
}
