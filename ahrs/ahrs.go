// Package ahrs defines the attitude sample schema shared between the
// sensor clients and the stabilization loop.
package ahrs

// Euler holds an orientation in degrees.
type Euler struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// BodyRate holds body-frame angular rates in degrees per second.
type BodyRate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sample is one attitude reading as delivered to subscribers.
type Sample struct {
	// Error is the sensor's own validity flag: true means the estimate
	// is not trustworthy for control.
	Error bool

	EulerDeg    Euler
	BodyRateDPS BodyRate

	// RateHz is the sensor's sample-rate hint, used by the feedback law
	// for integration.
	RateHz float64

	// Timestamp is the tick count at which the sample was taken, in the
	// controller clock domain.
	Timestamp uint32
}

// Handler consumes attitude samples. Delivery is synchronous from the
// source's reader context.
type Handler interface {
	HandleSample(s *Sample)
}

// Source delivers attitude samples to subscribed handlers.
type Source interface {
	Subscribe(h Handler)
}
