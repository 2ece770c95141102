// Package pid implements the per-axis feedback law for the stabilization
// loop. Each axis runs its own controller instance bound to its own gain
// set and persistent state; instances never share state.
package pid

// Config holds the gain set for one axis. It is loaded from the
// configuration file and never mutated by the control loop.
type Config struct {
	Kp float64 `toml:"kp" json:"kp"`
	Ki float64 `toml:"ki" json:"ki"`
	Kd float64 `toml:"kd" json:"kd"`

	// ILimit clamps the accumulated integral term to [-ILimit, ILimit].
	ILimit float64 `toml:"ilimit" json:"ilimit"`

	// CmdLimit clamps the output command to [-CmdLimit, CmdLimit].
	// Zero means unlimited.
	CmdLimit float64 `toml:"cmd_limit" json:"cmd_limit"`

	// Sign flips the command direction for motors wired in reverse.
	// Zero is treated as +1.
	Sign float64 `toml:"sign" json:"sign"`
}

// State is the controller's persistent state. It is exported so the
// stabilizer can publish it in telemetry snapshots.
type State struct {
	Error     float64 `json:"error"`
	ErrorRate float64 `json:"error_rate"`
	Integral  float64 `json:"integral"`
	Command   float64 `json:"command"`
}

// PID advances one axis of the feedback law. The config and state are
// held by reference: the config belongs to the configuration store and
// the state to the stabilizer's telemetry record.
type PID struct {
	config *Config
	state  *State
}

// New binds a controller to its gains and persistent state. Both must
// stay valid for the controller's lifetime.
func New(config *Config, state *State) *PID {
	return &PID{config: config, state: state}
}

// Apply advances the controller by one sample and returns the new command.
// The command is a fraction of full actuation range. The result is
// deterministic given the persistent state and the explicit inputs.
func (p *PID) Apply(measuredPos, desiredPos, measuredRate, desiredRate, rateHz float64) float64 {
	c, s := p.config, p.state

	s.Error = desiredPos - measuredPos
	s.ErrorRate = desiredRate - measuredRate

	if rateHz > 0 {
		s.Integral += s.Error * c.Ki / rateHz
	}
	s.Integral = clamp(s.Integral, c.ILimit)

	sign := c.Sign
	if sign == 0 {
		sign = 1
	}
	command := sign * (c.Kp*s.Error + c.Kd*s.ErrorRate + s.Integral)
	s.Command = clamp(command, c.CmdLimit)
	return s.Command
}

// clamp limits v to [-limit, limit]. A zero limit means unlimited.
func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
