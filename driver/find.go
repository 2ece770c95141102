package driver

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// Find attempts to find and initialize a registered driver board.
// Serial boards are matched by VID/PID first, then USB-only boards are
// tried. Returns the initialized board or an error if none is found.
func Find() (MotorDriver, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	// Try registered serial port boards
	for _, port := range ports {
		portVID, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		portPID, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}

		for _, info := range registeredDrivers {
			if info.VendorID == 0 && info.ProductID == 0 {
				continue // Skip USB-only boards here
			}
			if uint16(portVID) == info.VendorID && uint16(portPID) == info.ProductID {
				board, err := info.Factory(port)
				if err != nil {
					continue // Try next port
				}
				return board, nil
			}
		}
	}

	// Try USB-only boards
	for _, info := range registeredDrivers {
		if info.VendorID != 0 || info.ProductID != 0 {
			continue
		}
		board, err := info.Factory(nil)
		if err != nil {
			continue
		}
		return board, nil
	}

	return nil, fmt.Errorf("no supported motor driver board found")
}
