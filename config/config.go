// Package config loads the persistent controller configuration. The
// configuration is only ever written by the operator between runs; the
// control loop reads it by reference and never mutates it.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/sergev/gimbal/stabilizer"
)

//go:embed gimbal.toml
var defaultConfigData []byte

// Global state for the loaded configuration
var (
	// Gimbal holds the validated stabilizer parameters.
	Gimbal stabilizer.Config

	// Torque selects whether motor power is applied while operating.
	Torque bool
)

// file is the TOML document structure.
type file struct {
	Torque bool              `toml:"torque"`
	Gimbal stabilizer.Config `toml:"gimbal"`
}

// configPath determines the config file path based on the operating system
func configPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		// Use AppData directory for Windows
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "gimbal")
	default:
		// Linux/macOS: use home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".gimbal"), nil
}

// Initialize loads and validates the configuration file.
// If the config file doesn't exist, it creates it from the embedded default.
func Initialize() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	// Check if config file exists, create from embedded default if not
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create parent directory if needed (for Windows)
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}

		if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
			return fmt.Errorf("failed to create default config file at %s: %w", path, err)
		}
	}

	return load(path)
}

// load parses and validates one configuration file and stores the result
// in the package globals.
func load(path string) error {
	var conf file
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}

	if err := validate(&conf.Gimbal); err != nil {
		return fmt.Errorf("invalid config at %s: %w", path, err)
	}

	Gimbal = conf.Gimbal
	Torque = conf.Torque
	return nil
}

// validate checks the stabilizer parameters field by field.
func validate(c *stabilizer.Config) error {
	if c.InitializationPeriodS <= 0 {
		return fmt.Errorf("initialization_period_s must be positive, got %g", c.InitializationPeriodS)
	}
	if c.WatchdogPeriodS <= 0 {
		return fmt.Errorf("watchdog_period_s must be positive, got %g", c.WatchdogPeriodS)
	}

	if err := validateChannel("pitch", &c.Pitch); err != nil {
		return err
	}
	if err := validateChannel("yaw", &c.Yaw); err != nil {
		return err
	}

	// Both axes driving one physical port would silently drop the axis
	// written first, so a collision is rejected outright.
	if c.Pitch.Motor == c.Yaw.Motor {
		return fmt.Errorf("pitch and yaw both select motor port %d", c.Pitch.Motor)
	}
	return nil
}

// validateChannel checks one axis configuration.
func validateChannel(name string, ch *stabilizer.ChannelConfig) error {
	if ch.Motor != 1 && ch.Motor != 2 {
		return fmt.Errorf("%s motor port must be 1 or 2, got %d", name, ch.Motor)
	}
	if ch.PID.ILimit < 0 {
		return fmt.Errorf("%s ilimit must not be negative, got %g", name, ch.PID.ILimit)
	}
	if ch.PID.CmdLimit < 0 {
		return fmt.Errorf("%s cmd_limit must not be negative, got %g", name, ch.PID.CmdLimit)
	}
	if ch.PID.Sign != 0 && ch.PID.Sign != 1 && ch.PID.Sign != -1 {
		return errors.New(name + " sign must be 1, -1 or unset")
	}
	return nil
}
