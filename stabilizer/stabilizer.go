// Package stabilizer implements the closed-loop stabilization controller
// for a two-axis brushless gimbal. It consumes attitude samples, runs the
// per-axis feedback law, drives the motor outputs through sinusoidal
// commutation, and enforces the safety invariants: startup settling,
// sample-staleness watchdog and a latched fault state.
package stabilizer

import (
	"fmt"
	"sync"

	"github.com/sergev/gimbal/clock"
	"github.com/sergev/gimbal/pid"
)

// EnableLine drives the motor power enable pin.
type EnableLine interface {
	Set(on bool)
}

// Motor drives one three-phase output. The three duties are applied
// together as a single update; a motor never observes a partial triple.
type Motor interface {
	Set(a, b, c uint16)
}

// Telemetry registers a named runtime-state record and returns the
// function that publishes a snapshot of it.
type Telemetry interface {
	Register(name string, record any) (func(), error)
}

// State is the controller state.
type State int

const (
	StateInitializing State = iota
	StateOperating
	StateFault
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateOperating:
		return "operating"
	case StateFault:
		return "fault"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText makes telemetry snapshots carry the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ChannelConfig binds one axis to a physical motor port and its gain set.
type ChannelConfig struct {
	// Motor selects the physical output port, 1 or 2.
	Motor int        `toml:"motor" json:"motor"`
	PID   pid.Config `toml:"pid" json:"pid"`
}

// Config holds the controller's tunable parameters. It is loaded once at
// startup and never mutated by the control loop.
type Config struct {
	// InitializationPeriodS is the minimum dwell time in the
	// initializing state before operation is permitted.
	InitializationPeriodS float64 `toml:"initialization_period_s" json:"initialization_period_s"`

	// WatchdogPeriodS is the maximum allowed elapsed time since the
	// last valid attitude sample before a fault is forced.
	WatchdogPeriodS float64 `toml:"watchdog_period_s" json:"watchdog_period_s"`

	Pitch ChannelConfig `toml:"pitch" json:"pitch"`
	Yaw   ChannelConfig `toml:"yaw" json:"yaw"`
}

// DefaultConfig returns the built-in parameter set: one second of
// settling, a 100 ms watchdog, pitch on motor 1 and yaw on motor 2.
func DefaultConfig() Config {
	return Config{
		InitializationPeriodS: 1.0,
		WatchdogPeriodS:       0.1,
		Pitch:                 ChannelConfig{Motor: 1},
		Yaw:                   ChannelConfig{Motor: 2},
	}
}

// Data is the runtime state snapshot published to telemetry after every
// sample dispatch.
type Data struct {
	State State     `json:"state"`
	Pitch pid.State `json:"pitch"`
	Yaw   pid.State `json:"yaw"`

	// StartTimestamp is the tick of the first error-free sample seen
	// while initializing. Zero means not yet recorded.
	StartTimestamp uint32 `json:"start_timestamp"`

	DesiredDeg         Desired `json:"desired_deg"`
	DesiredBodyRateDPS Desired `json:"desired_body_rate_dps"`

	// LastSampleTimestamp is the tick of the most recently accepted
	// sample; the watchdog measures staleness against it.
	LastSampleTimestamp uint32 `json:"last_sample_timestamp"`

	TorqueEnabled bool `json:"torque_enabled"`
}

// Desired holds per-axis setpoints.
type Desired struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Stabilizer owns the runtime state and drives the feedback law and the
// motor outputs. It is re-entered from two contexts: the attitude-sample
// handler and the fixed-period watchdog tick.
type Stabilizer struct {
	clock  clock.Clock
	config *Config
	enable EnableLine
	motor1 Motor
	motor2 Motor

	publish func()

	// mu guards data and the PID state. The sample path blocks on it;
	// the tick path only ever try-locks (see PollTick).
	mu       sync.Mutex
	data     Data
	pitchPID *pid.PID
	yawPID   *pid.PID
}

// New wires a stabilizer to its collaborators and registers its runtime
// state with the telemetry registry under the name "gimbal". All
// collaborators are borrowed and must stay valid for the stabilizer's
// lifetime. The controller starts in the initializing state with
// actuation disabled.
func New(clk clock.Clock, config *Config, tel Telemetry,
	enable EnableLine, motor1, motor2 Motor) (*Stabilizer, error) {
	s := &Stabilizer{
		clock:  clk,
		config: config,
		enable: enable,
		motor1: motor1,
		motor2: motor2,
	}
	s.pitchPID = pid.New(&config.Pitch.PID, &s.data.Pitch)
	s.yawPID = pid.New(&config.Yaw.PID, &s.data.Yaw)

	publish, err := tel.Register("gimbal", &s.data)
	if err != nil {
		return nil, fmt.Errorf("failed to register telemetry record: %w", err)
	}
	s.publish = publish
	return s, nil
}

// SetTorque gates whether the enable line is asserted while operating.
// It takes effect on the next sample dispatch.
func (s *Stabilizer) SetTorque(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.TorqueEnabled = on
}

// State returns the current controller state.
func (s *Stabilizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.State
}

// Snapshot returns a copy of the runtime state.
func (s *Stabilizer) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// pitchMotor resolves the pitch axis to its configured output port.
// A selector out of range falls back to motor 1.
func (s *Stabilizer) pitchMotor() Motor {
	if s.config.Pitch.Motor == 2 {
		return s.motor2
	}
	return s.motor1
}

// yawMotor resolves the yaw axis to its configured output port.
// A selector out of range falls back to motor 2.
func (s *Stabilizer) yawMotor() Motor {
	if s.config.Yaw.Motor == 1 {
		return s.motor1
	}
	return s.motor2
}
