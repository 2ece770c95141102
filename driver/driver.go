// Package driver defines the motor driver board interface and the
// registry used to discover a connected board.
package driver

import (
	"github.com/sergev/gimbal/stabilizer"

	"go.bug.st/serial/enumerator"
)

// MotorDriver is a driver board carrying a power enable line and two
// independently addressable three-phase motor outputs. The stabilizer
// exclusively owns the outputs while it is running.
type MotorDriver interface {
	// EnableLine returns the board's motor power enable line.
	EnableLine() stabilizer.EnableLine

	// Motor returns the three-phase output for port 1 or 2.
	Motor(port int) stabilizer.Motor

	// PrintStatus prints board status information to stdout.
	PrintStatus()

	// Close releases the transport.
	Close() error
}

// Factory is a function that creates a driver client from port details
type Factory func(portDetails *enumerator.PortDetails) (MotorDriver, error)

// Info contains information about a registered driver type
type Info struct {
	VendorID  uint16
	ProductID uint16
	Factory   Factory
}

var registeredDrivers []Info

// Register registers a serial driver board factory with its VID/PID
func Register(vendorID, productID uint16, factory Factory) {
	registeredDrivers = append(registeredDrivers, Info{
		VendorID:  vendorID,
		ProductID: productID,
		Factory:   factory,
	})
}

// RegisterUSB registers a driver board that doesn't use serial ports
func RegisterUSB(factory Factory) {
	registeredDrivers = append(registeredDrivers, Info{
		VendorID:  0, // Special marker for USB-only boards
		ProductID: 0,
		Factory:   factory,
	})
}
