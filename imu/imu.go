// Package imu is the client for the serial attitude sensor. The sensor
// streams fixed-size binary frames carrying its fused orientation and
// body rates; the client decodes them and fans the samples out to
// subscribed handlers.
package imu

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/sergev/gimbal/ahrs"
	"github.com/sergev/gimbal/clock"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	VendorID  = 0x1209
	ProductID = 0x6D49
)

// Frame layout, little-endian, 34 bytes total:
//
//	byte  0:     sync 'G'
//	byte  1:     sync 'A'
//	byte  2:     flags (bit 0: estimate invalid)
//	byte  3:     reserved
//	bytes 4-31:  7 x float32: pitch, roll, yaw (deg),
//	             rate x, y, z (deg/s), sample rate (Hz)
//	bytes 32-33: checksum, uint16 sum of bytes 2-31
const (
	SyncA = 'G'
	SyncB = 'A'

	FrameSize = 34

	FlagInvalid = 1 << 0
)

// Client reads attitude frames from the sensor's serial port and
// delivers decoded samples to subscribers. Samples are timestamped with
// the controller clock at decode time so the stabilizer's staleness
// arithmetic stays in one clock domain.
type Client struct {
	port serial.Port
	clk  clock.Clock

	mu       sync.Mutex
	handlers []ahrs.Handler
	frames   uint64
	rejected uint64
}

// NewClient opens the sensor's serial port.
func NewClient(portDetails *enumerator.PortDetails, clk clock.Clock) (*Client, error) {
	mode := &serial.Mode{
		BaudRate: 921600,
	}
	port, err := serial.Open(portDetails.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portDetails.Name, err)
	}

	return &Client{port: port, clk: clk}, nil
}

// Find locates the sensor by VID/PID among the connected serial ports.
func Find(clk clock.Clock) (*Client, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	for _, port := range ports {
		portVID, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		portPID, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}
		if uint16(portVID) == VendorID && uint16(portPID) == ProductID {
			client, err := NewClient(port, clk)
			if err != nil {
				continue // Try next port
			}
			return client, nil
		}
	}

	return nil, fmt.Errorf("attitude sensor not found (VID=0x%04X PID=0x%04X)", VendorID, ProductID)
}

// Subscribe registers a handler for decoded samples. Handlers run
// synchronously on the reader, so a handler must not block.
func (c *Client) Subscribe(h ahrs.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Run reads and dispatches frames until the port fails or is closed.
// Corrupt frames are dropped without delivery; a sensor that stops
// producing valid frames is caught by the stabilizer's watchdog.
func (c *Client) Run() error {
	buf := make([]byte, 0, 2*FrameSize)
	chunk := make([]byte, 256)

	for {
		n, err := c.port.Read(chunk)
		if err != nil {
			return fmt.Errorf("failed to read from sensor: %w", err)
		}
		buf = append(buf, chunk[:n]...)

		for {
			frame, rest, ok := nextFrame(buf)
			buf = rest
			if !ok {
				break
			}
			sample, err := decodeFrame(frame)
			if err != nil {
				c.mu.Lock()
				c.rejected++
				c.mu.Unlock()
				continue
			}
			sample.Timestamp = c.clk.Timestamp()
			c.dispatch(&sample)
		}
	}
}

// dispatch delivers one sample to all subscribers.
func (c *Client) dispatch(sample *ahrs.Sample) {
	c.mu.Lock()
	handlers := c.handlers
	c.frames++
	c.mu.Unlock()

	for _, h := range handlers {
		h.HandleSample(sample)
	}
}

// nextFrame scans buf for a sync pair and extracts one complete frame.
// It returns the frame, the unconsumed remainder, and whether a frame
// was found.
func nextFrame(buf []byte) (frame, rest []byte, ok bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] != SyncA || buf[i+1] != SyncB {
			continue
		}
		if len(buf)-i < FrameSize {
			// Partial frame: keep from the sync onward.
			return nil, buf[i:], false
		}
		return buf[i : i+FrameSize], buf[i+FrameSize:], true
	}
	// No sync found; keep the last byte in case it starts a pair.
	if len(buf) > 0 {
		return nil, buf[len(buf)-1:], false
	}
	return nil, buf, false
}

// decodeFrame parses and checksums one complete frame.
func decodeFrame(frame []byte) (ahrs.Sample, error) {
	var sample ahrs.Sample

	if len(frame) != FrameSize {
		return sample, fmt.Errorf("bad frame size %d", len(frame))
	}
	if frame[0] != SyncA || frame[1] != SyncB {
		return sample, fmt.Errorf("bad sync bytes 0x%02x 0x%02x", frame[0], frame[1])
	}

	var sum uint16
	for _, b := range frame[2 : FrameSize-2] {
		sum += uint16(b)
	}
	if got := binary.LittleEndian.Uint16(frame[FrameSize-2:]); got != sum {
		return sample, fmt.Errorf("checksum mismatch: got 0x%04x, want 0x%04x", got, sum)
	}

	f := func(offset int) float64 {
		bits := binary.LittleEndian.Uint32(frame[offset : offset+4])
		return float64(math.Float32frombits(bits))
	}

	sample.Error = frame[2]&FlagInvalid != 0
	sample.EulerDeg.Pitch = f(4)
	sample.EulerDeg.Roll = f(8)
	sample.EulerDeg.Yaw = f(12)
	sample.BodyRateDPS.X = f(16)
	sample.BodyRateDPS.Y = f(20)
	sample.BodyRateDPS.Z = f(24)
	sample.RateHz = f(28)

	return sample, nil
}

// PrintStatus prints sensor statistics to stdout
func (c *Client) PrintStatus() {
	c.mu.Lock()
	frames := c.frames
	rejected := c.rejected
	c.mu.Unlock()

	fmt.Printf("Attitude Sensor:\n")
	fmt.Printf("Frames Decoded: %d\n", frames)
	fmt.Printf("Frames Rejected: %d\n", rejected)
}

// Close closes the serial connection
func (c *Client) Close() error {
	return c.port.Close()
}
