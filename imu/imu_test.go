package imu

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildFrame packs one sensor frame with a valid checksum.
func buildFrame(flags byte, values [7]float32) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = SyncA
	frame[1] = SyncB
	frame[2] = flags
	for i, v := range values {
		binary.LittleEndian.PutUint32(frame[4+4*i:], math.Float32bits(v))
	}
	var sum uint16
	for _, b := range frame[2 : FrameSize-2] {
		sum += uint16(b)
	}
	binary.LittleEndian.PutUint16(frame[FrameSize-2:], sum)
	return frame
}

// Verify decoding of a well-formed frame.
func TestDecodeFrame(t *testing.T) {
	frame := buildFrame(0, [7]float32{1.5, -2.5, 178.25, 10, -20, 30, 250})

	sample, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decodeFrame() returned error: %v", err)
	}

	if sample.Error {
		t.Errorf("sample.Error = true, expected false")
	}
	if sample.EulerDeg.Pitch != 1.5 {
		t.Errorf("pitch = %g, expected 1.5", sample.EulerDeg.Pitch)
	}
	if sample.EulerDeg.Roll != -2.5 {
		t.Errorf("roll = %g, expected -2.5", sample.EulerDeg.Roll)
	}
	if sample.EulerDeg.Yaw != 178.25 {
		t.Errorf("yaw = %g, expected 178.25", sample.EulerDeg.Yaw)
	}
	if sample.BodyRateDPS.X != 10 || sample.BodyRateDPS.Y != -20 || sample.BodyRateDPS.Z != 30 {
		t.Errorf("body rates = (%g, %g, %g), expected (10, -20, 30)",
			sample.BodyRateDPS.X, sample.BodyRateDPS.Y, sample.BodyRateDPS.Z)
	}
	if sample.RateHz != 250 {
		t.Errorf("rate = %g Hz, expected 250", sample.RateHz)
	}
}

// Verify the sensor's invalid-estimate flag maps to the sample error.
func TestDecodeFrameErrorFlag(t *testing.T) {
	frame := buildFrame(FlagInvalid, [7]float32{})

	sample, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decodeFrame() returned error: %v", err)
	}
	if !sample.Error {
		t.Errorf("sample.Error = false, expected true for invalid estimate flag")
	}
}

// Verify corrupt frames are rejected rather than delivered.
func TestDecodeFrameCorrupt(t *testing.T) {
	frame := buildFrame(0, [7]float32{1, 2, 3, 4, 5, 6, 7})
	frame[10] ^= 0xff // flip payload bits, checksum now stale

	if _, err := decodeFrame(frame); err == nil {
		t.Errorf("decodeFrame() accepted a frame with a bad checksum")
	}

	short := frame[:FrameSize-4]
	if _, err := decodeFrame(short); err == nil {
		t.Errorf("decodeFrame() accepted a truncated frame")
	}
}

// Verify frame extraction across garbage, split frames and back-to-back
// frames.
func TestNextFrame(t *testing.T) {
	frame := buildFrame(0, [7]float32{1, 2, 3, 4, 5, 6, 7})

	// Garbage before the sync pair.
	buf := append([]byte{0x00, 0x55, SyncA}, frame...)
	got, rest, ok := nextFrame(buf)
	if !ok {
		t.Fatalf("nextFrame() found no frame after garbage prefix")
	}
	if len(got) != FrameSize || got[0] != SyncA || got[1] != SyncB {
		t.Errorf("nextFrame() returned a malformed frame")
	}
	if len(rest) != 0 {
		t.Errorf("nextFrame() left %d bytes, expected 0", len(rest))
	}

	// Split frame: first half only.
	half := frame[:FrameSize/2]
	_, rest, ok = nextFrame(half)
	if ok {
		t.Errorf("nextFrame() extracted a frame from a partial buffer")
	}
	if len(rest) != len(half) {
		t.Errorf("nextFrame() kept %d bytes of a partial frame, expected %d", len(rest), len(half))
	}

	// Completing the frame must yield it.
	full := append(append([]byte{}, rest...), frame[FrameSize/2:]...)
	got, _, ok = nextFrame(full)
	if !ok {
		t.Fatalf("nextFrame() found no frame after completion")
	}
	if got[0] != SyncA || got[1] != SyncB {
		t.Errorf("completed frame malformed")
	}

	// Two back-to-back frames come out one at a time.
	double := append(append([]byte{}, frame...), frame...)
	_, rest, ok = nextFrame(double)
	if !ok {
		t.Fatalf("nextFrame() missed the first of two frames")
	}
	_, rest, ok = nextFrame(rest)
	if !ok {
		t.Fatalf("nextFrame() missed the second of two frames")
	}
	if len(rest) != 0 {
		t.Errorf("nextFrame() left %d bytes after two frames, expected 0", len(rest))
	}
}
