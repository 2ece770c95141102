package stabilizer

import (
	"fmt"

	"github.com/sergev/gimbal/ahrs"
	"github.com/sergev/gimbal/bldc"
	"github.com/sergev/gimbal/clock"
)

// HandleSample dispatches one attitude sample through the state machine.
// It never returns an error: sensor and timing problems resolve into the
// fault state, observable only through telemetry and the actuation
// outputs. Every call publishes exactly one telemetry snapshot.
func (s *Stabilizer) HandleSample(sample *ahrs.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.data.State {
	case StateInitializing:
		s.doInitializing(sample)
	case StateOperating:
		s.doOperating(sample)
	case StateFault:
		s.doFault()
	default:
		panic(fmt.Sprintf("stabilizer: invalid state %d", int(s.data.State)))
	}

	s.publish()
}

// PollTick is the fixed-period watchdog entry point, intended to be
// invoked about once per millisecond by the host scheduler. It must not
// block: when the sample handler holds the lock a sample is being
// processed right now, so staleness cannot have expired and the check is
// safely skipped until the next tick.
func (s *Stabilizer) PollTick() {
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()

	switch s.data.State {
	case StateOperating:
		elapsed := clock.Elapsed(s.clock, s.data.LastSampleTimestamp, s.clock.Timestamp())
		if elapsed > s.config.WatchdogPeriodS {
			s.doFault()
		}
	case StateInitializing, StateFault:
	default:
		panic(fmt.Sprintf("stabilizer: invalid state %d", int(s.data.State)))
	}
}

// doInitializing waits for the sensor to settle: the settling clock
// starts at the first error-free sample and restarts whenever an error
// sample arrives. Actuation stays disabled throughout.
func (s *Stabilizer) doInitializing(sample *ahrs.Sample) {
	s.enable.Set(false)

	if sample.Error {
		s.data.StartTimestamp = 0
		return
	}

	if s.data.StartTimestamp == 0 {
		s.data.StartTimestamp = s.clock.Timestamp()
		return
	}

	now := s.clock.Timestamp()
	elapsed := clock.Elapsed(s.clock, s.data.StartTimestamp, now)
	if elapsed > s.config.InitializationPeriodS {
		// Hold the current heading and level pitch.
		s.data.DesiredDeg.Pitch = 0
		s.data.DesiredDeg.Yaw = sample.EulerDeg.Yaw
		s.data.LastSampleTimestamp = now
		s.data.State = StateOperating
	}
}

// doOperating runs one control cycle: feedback law for both axes, phase
// generation, and an atomic triple write to each configured motor port.
func (s *Stabilizer) doOperating(sample *ahrs.Sample) {
	if sample.Error {
		s.doFault()
		return
	}

	s.data.LastSampleTimestamp = sample.Timestamp
	s.enable.Set(s.data.TorqueEnabled)

	pitchCommand := s.pitchPID.Apply(
		sample.EulerDeg.Pitch, s.data.DesiredDeg.Pitch,
		sample.BodyRateDPS.X, s.data.DesiredBodyRateDPS.Pitch,
		sample.RateHz)
	yawCommand := s.yawPID.Apply(
		sample.EulerDeg.Yaw, s.data.DesiredDeg.Yaw,
		sample.BodyRateDPS.Z, s.data.DesiredBodyRateDPS.Yaw,
		sample.RateHz)

	pa, pb, pc := bldc.Commutate(pitchCommand)
	ya, yb, yc := bldc.Commutate(yawCommand)

	// Pitch is written first: if both axes select the same port, the
	// yaw write wins.
	s.pitchMotor().Set(pa, pb, pc)
	s.yawMotor().Set(ya, yb, yc)
}

// doFault latches the fault state and forces the safe output state:
// enable line low, all phases zero on both ports. It is idempotent, since
// both dispatch paths may attempt fault entry. A fault is cleared only by
// restarting the whole controller.
func (s *Stabilizer) doFault() {
	s.data.State = StateFault
	s.data.TorqueEnabled = false
	s.enable.Set(false)
	s.motor1.Set(0, 0, 0)
	s.motor2.Set(0, 0, 0)
}
