// Package phaselink is the client for the PhaseLink USB gimbal driver
// board. It carries the same framed command protocol as the serial
// board, but over a USB bulk endpoint pair.
package phaselink

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/sergev/gimbal/driver"
	"github.com/sergev/gimbal/stabilizer"

	"github.com/google/gousb"
	"go.bug.st/serial/enumerator"
)

const (
	VendorID  = 0x16c0
	ProductID = 0x05df
	Interface = 0

	EndpointBulkOut = 0x01
	EndpointBulkIn  = 0x81
)

// Command codes (shared with the serial board protocol)
const (
	CMD_GET_INFO   = 0
	CMD_SET_ENABLE = 1
	CMD_SET_PHASES = 2
	CMD_RESET      = 3
)

// Client wraps a USB connection to a PhaseLink board
type Client struct {
	mu      sync.Mutex
	ctx     *gousb.Context
	dev     *gousb.Device
	done    func()
	bulkOut *gousb.OutEndpoint
	bulkIn  *gousb.InEndpoint

	fwVersion string

	ioFailures int
	lastErr    error
}

func init() {
	driver.RegisterUSB(NewClient)
}

// NewClient creates a new PhaseLink client using USB communication.
// The portDetails parameter is ignored as PhaseLink uses USB directly.
func NewClient(portDetails *enumerator.PortDetails) (driver.MotorDriver, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == VendorID && uint16(desc.Product) == ProductID
	})
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("PhaseLink device not found (VID=0x%04X PID=0x%04X)", VendorID, ProductID)
	}

	// Use the first matching device
	dev := devs[0]
	for i := 1; i < len(devs); i++ {
		devs[i].Close()
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to get config 1: %w", err)
	}

	intf, err := cfg.Interface(Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim interface %d: %w", Interface, err)
	}

	done := func() {
		intf.Close()
		cfg.Close()
	}

	bulkOut, err := intf.OutEndpoint(EndpointBulkOut)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk out endpoint: %w", err)
	}

	bulkIn, err := intf.InEndpoint(EndpointBulkIn)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk in endpoint: %w", err)
	}

	client := &Client{
		ctx:     ctx,
		dev:     dev,
		done:    done,
		bulkOut: bulkOut,
		bulkIn:  bulkIn,
	}

	// Known output state before anyone drives the board.
	if err := client.Reset(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reset board: %w", err)
	}

	version, err := client.fetchVersion()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to fetch firmware version: %w", err)
	}
	client.fwVersion = version

	return client, nil
}

// doCommand sends a command frame and reads the 2-byte ACK.
func (c *Client) doCommand(cmd []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.bulkOut.Write(cmd)
	if err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}

	ack := make([]byte, 2)
	_, err = io.ReadFull(c.bulkIn, ack)
	if err != nil {
		return fmt.Errorf("failed to read ACK: %w", err)
	}
	if ack[0] != cmd[0] {
		return fmt.Errorf("command returned garbage (0x%02x != 0x%02x with status 0x%02x)",
			ack[0], cmd[0], ack[1])
	}
	if ack[1] != 0 {
		return fmt.Errorf("PhaseLink error: status 0x%02x", ack[1])
	}
	return nil
}

// fetchVersion queries the board firmware version string
func (c *Client) fetchVersion() (string, error) {
	err := c.doCommand([]byte{CMD_GET_INFO, 2})
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	response := make([]byte, 8)
	if _, err := io.ReadFull(c.bulkIn, response); err != nil {
		return "", fmt.Errorf("failed to read info response: %w", err)
	}
	return fmt.Sprintf("v%d.%d", response[0], response[1]), nil
}

// SetEnable drives the motor power enable line
func (c *Client) SetEnable(on bool) error {
	var state byte = 0
	if on {
		state = 1
	}
	return c.doCommand([]byte{CMD_SET_ENABLE, 3, state})
}

// SetPhases applies one duty triple to the specified motor port (1 or 2)
func (c *Client) SetPhases(port int, a, b, c16 uint16) error {
	cmd := make([]byte, 9)
	cmd[0] = CMD_SET_PHASES
	cmd[1] = 9
	cmd[2] = byte(port)
	binary.LittleEndian.PutUint16(cmd[3:5], a)
	binary.LittleEndian.PutUint16(cmd[5:7], b)
	binary.LittleEndian.PutUint16(cmd[7:9], c16)
	return c.doCommand(cmd)
}

// Reset returns the board to its initial state: enable low, all phases zero
func (c *Client) Reset() error {
	return c.doCommand([]byte{CMD_RESET, 2})
}

// recordErr notes a failed output write.
func (c *Client) recordErr(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.ioFailures++
	c.lastErr = err
	c.mu.Unlock()
}

type enableLine struct {
	client *Client
}

func (e enableLine) Set(on bool) {
	e.client.recordErr(e.client.SetEnable(on))
}

type motorPort struct {
	client *Client
	port   int
}

func (m motorPort) Set(a, b, c uint16) {
	m.client.recordErr(m.client.SetPhases(m.port, a, b, c))
}

// EnableLine returns the board's motor power enable line.
func (c *Client) EnableLine() stabilizer.EnableLine {
	return enableLine{client: c}
}

// Motor returns the three-phase output for port 1 or 2.
func (c *Client) Motor(port int) stabilizer.Motor {
	return motorPort{client: c, port: port}
}

// PrintStatus prints board status information to stdout
func (c *Client) PrintStatus() {
	c.mu.Lock()
	version := c.fwVersion
	failures := c.ioFailures
	lastErr := c.lastErr
	c.mu.Unlock()

	fmt.Printf("PhaseLink USB Driver Board:\n")
	fmt.Printf("Firmware: %s\n", version)
	if failures > 0 {
		fmt.Printf("Output Write Failures: %d (last: %v)\n", failures, lastErr)
	}
}

// Close closes the USB connection
func (c *Client) Close() error {
	if c.done != nil {
		c.done()
	}
	if c.dev != nil {
		c.dev.Close()
	}
	if c.ctx != nil {
		return c.ctx.Close()
	}
	return nil
}
