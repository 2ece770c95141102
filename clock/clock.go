// Package clock provides the monotonic tick source used for all control
// timing. Timestamps are free-running uint32 tick counts; elapsed time is
// always computed with wraparound-safe unsigned subtraction.
package clock

import "time"

// Clock supplies a free-running tick counter. It is never reset or
// paused; consumers only ever do elapsed-time arithmetic on it.
type Clock interface {
	// Timestamp returns the current tick count. The counter wraps at
	// its native 32-bit width.
	Timestamp() uint32

	// TicksPerSecond returns the conversion factor from ticks to seconds.
	TicksPerSecond() float64
}

// Elapsed converts the tick interval from then to now into seconds,
// tolerating counter wraparound.
func Elapsed(c Clock, then, now uint32) float64 {
	return float64(now-then) / c.TicksPerSecond()
}

// Monotonic counts microseconds since construction. The counter wraps
// after about 71 minutes, which the elapsed-time arithmetic tolerates.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a microsecond tick source starting at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Timestamp() uint32 {
	return uint32(time.Since(m.start).Microseconds())
}

func (m *Monotonic) TicksPerSecond() float64 {
	return 1e6
}

// Simulated is a manually advanced tick source for tests and offline
// simulation runs.
type Simulated struct {
	ticks uint32
	tps   float64
}

// NewSimulated creates a simulated clock with the given tick rate.
func NewSimulated(ticksPerSecond float64) *Simulated {
	return &Simulated{tps: ticksPerSecond}
}

func (s *Simulated) Timestamp() uint32 {
	return s.ticks
}

func (s *Simulated) TicksPerSecond() float64 {
	return s.tps
}

// Advance moves the clock forward by n ticks, wrapping as the hardware
// counter would.
func (s *Simulated) Advance(n uint32) {
	s.ticks += n
}

// AdvanceSeconds moves the clock forward by the given number of seconds.
func (s *Simulated) AdvanceSeconds(sec float64) {
	s.ticks += uint32(sec * s.tps)
}
