package gimbalboard

import "fmt"

// PrintStatus prints driver board status information to stdout
func (c *Client) PrintStatus() {
	c.mu.Lock()
	info := c.firmwareInfo
	failures := c.ioFailures
	lastErr := c.lastErr
	c.mu.Unlock()

	fmt.Printf("Gimbal Driver Board:\n")
	fmt.Printf("Firmware: v%d.%d\n", info.FwMajor, info.FwMinor)
	fmt.Printf("Hardware Model: %d\n", info.HwModel)
	fmt.Printf("Motor Ports: %d\n", info.NumMotors)
	fmt.Printf("PWM Frequency: %d Hz\n", info.PwmFreqHz)
	if c.serialNumber != "" {
		fmt.Printf("Serial Number: %s\n", c.serialNumber)
	}
	if failures > 0 {
		fmt.Printf("Output Write Failures: %d (last: %v)\n", failures, lastErr)
	}
}
