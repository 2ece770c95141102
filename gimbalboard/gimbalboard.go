// Package gimbalboard is the client for the serial gimbal driver board:
// a two-port three-phase PWM output stage with a shared motor power
// enable line, controlled by a framed command protocol over USB CDC.
package gimbalboard

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sergev/gimbal/driver"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	VendorID  = 0x1209 // Open source hardware projects
	ProductID = 0x6D41
)

// Command codes
const (
	CMD_GET_INFO   = 0
	CMD_SET_ENABLE = 1
	CMD_SET_PHASES = 2
	CMD_RESET      = 3
)

// ACK return codes
const (
	ACK_OKAY        = 0
	ACK_BAD_COMMAND = 1
	ACK_BAD_MOTOR   = 2
	ACK_POWER_FAULT = 3
	ACK_NOT_READY   = 4
)

// Client wraps a serial port connection to a gimbal driver board
type Client struct {
	mu           sync.Mutex
	port         serial.Port
	firmwareInfo FirmwareInfo
	serialNumber string

	ioFailures int
	lastErr    error
}

func init() {
	driver.Register(VendorID, ProductID, NewClient)
}

// NewClient creates a new driver board client using the provided port
// details. It opens the serial port, resets the output stage and fetches
// the firmware information.
func NewClient(portDetails *enumerator.PortDetails) (driver.MotorDriver, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
	}
	port, err := serial.Open(portDetails.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portDetails.Name, err)
	}

	client := &Client{
		port:         port,
		serialNumber: portDetails.SerialNumber,
	}

	// A reset drops the enable line and zeroes all phases, so the board
	// is in a known output state before anyone drives it.
	if err := client.Reset(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset board: %w", err)
	}

	info, err := client.fetchFirmwareInfo()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to fetch firmware info: %w", err)
	}
	client.firmwareInfo = info

	return client, nil
}

// ackError converts an ACK error code to a readable error message
func ackError(code byte) error {
	msg := "unknown error"
	switch code {
	case ACK_OKAY:
		return nil
	case ACK_BAD_COMMAND:
		msg = "bad command"
	case ACK_BAD_MOTOR:
		msg = "invalid motor port"
	case ACK_POWER_FAULT:
		msg = "power stage fault"
	case ACK_NOT_READY:
		msg = "not ready"
	}
	return fmt.Errorf("gimbal board error: %s", msg)
}

// doCommand sends a command and reads the ACK response. Callers hold
// c.mu for the whole exchange: commands from the control loop and from
// status queries may interleave otherwise.
func (c *Client) doCommand(cmd []byte) error {
	_, err := c.port.Write(cmd)
	if err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}

	// Read ACK response (2 bytes: command echo, status)
	ack := make([]byte, 2)
	_, err = io.ReadFull(c.port, ack)
	if err != nil {
		return fmt.Errorf("failed to read ACK: %w", err)
	}

	// Validate command echo matches
	if ack[0] != cmd[0] {
		return fmt.Errorf("command returned garbage (0x%02x != 0x%02x with status 0x%02x)",
			ack[0], cmd[0], ack[1])
	}

	return ackError(ack[1])
}

// FirmwareInfo contains the GET_INFO response fields
type FirmwareInfo struct {
	FwMajor   uint8
	FwMinor   uint8
	NumMotors uint8
	HwModel   uint8
	PwmFreqHz uint32
}

// fetchFirmwareInfo retrieves the firmware information from the board
func (c *Client) fetchFirmwareInfo() (FirmwareInfo, error) {
	var info FirmwareInfo

	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := []byte{CMD_GET_INFO, 2}
	err := c.doCommand(cmd)
	if err != nil {
		return info, fmt.Errorf("failed to send GET_INFO command: %w", err)
	}

	// Read 8-byte response:
	// byte 0: fw_major (uint8)
	// byte 1: fw_minor (uint8)
	// byte 2: num_motors (uint8)
	// byte 3: hw_model (uint8)
	// bytes 4-7: pwm_freq_hz (uint32, little-endian)
	response := make([]byte, 8)
	_, err = io.ReadFull(c.port, response)
	if err != nil {
		return info, fmt.Errorf("failed to read response: %w", err)
	}

	info.FwMajor = response[0]
	info.FwMinor = response[1]
	info.NumMotors = response[2]
	info.HwModel = response[3]
	info.PwmFreqHz = binary.LittleEndian.Uint32(response[4:8])

	return info, nil
}

// SetEnable drives the motor power enable line
func (c *Client) SetEnable(on bool) error {
	var state byte = 0
	if on {
		state = 1
	}
	cmd := []byte{CMD_SET_ENABLE, 3, state}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doCommand(cmd)
}

// SetPhases applies one duty triple to the specified motor port (1 or 2).
// The board latches all three duties into the PWM stage on the same
// cycle, so a partial update is never driven.
func (c *Client) SetPhases(port int, a, b, c16 uint16) error {
	cmd := encodeSetPhases(port, a, b, c16)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doCommand(cmd)
}

// encodeSetPhases builds the SET_PHASES command frame
func encodeSetPhases(port int, a, b, c uint16) []byte {
	cmd := make([]byte, 9)
	cmd[0] = CMD_SET_PHASES
	cmd[1] = 9
	cmd[2] = byte(port)
	binary.LittleEndian.PutUint16(cmd[3:5], a)
	binary.LittleEndian.PutUint16(cmd[5:7], b)
	binary.LittleEndian.PutUint16(cmd[7:9], c)
	return cmd
}

// Reset returns the board to its initial state: enable low, all phases zero
func (c *Client) Reset() error {
	cmd := []byte{CMD_RESET, 2}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doCommand(cmd)
}

// Close closes the serial connection
func (c *Client) Close() error {
	return c.port.Close()
}
