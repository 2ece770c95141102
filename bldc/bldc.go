// Package bldc generates sinusoidal commutation patterns for three-phase
// brushless gimbal motors.
package bldc

import "math"

// Phase offsets for the three windings, 120 degrees apart.
const (
	PhaseA = 0.0
	PhaseB = 1.0 / 3.0
	PhaseC = 2.0 / 3.0
)

// Phase maps a command fraction to a single 16-bit PWM duty value:
//
//	duty = round((sin((command + offset) * 2*pi) + 1) * 32767)
//
// The result is clamped to [0, 65535] and the function is total: any real
// command produces a valid duty. The output is periodic in command with
// period 1.0, so repeated calls with a monotonically increasing command
// rotate the motor continuously.
func Phase(command, offset float64) uint16 {
	f := (math.Sin((command+offset)*2*math.Pi) + 1) * 32767
	f = math.Round(f)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 65535 {
		return 65535
	}
	return uint16(f)
}

// Commutate produces the three phase duties for one motor from a single
// command fraction.
func Commutate(command float64) (a, b, c uint16) {
	return Phase(command, PhaseA), Phase(command, PhaseB), Phase(command, PhaseC)
}
