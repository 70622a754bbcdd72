// Package raid implements the quadruple-copy NV voting protocol (C3): every
// logical field is stored twice on each of two independent NV devices, and
// a read reconstructs the best-effort value from whichever copies agree.
package raid

import (
	"bytes"
	"fmt"

	"github.com/cubesat-fc/satstate/nvbus"
	"github.com/cubesat-fc/satstate/satlog"
)

// Confidence annotates a Read result with how much the voter trusts it.
type Confidence uint8

const (
	// ConfidenceHigh means full agreement: either all four copies matched,
	// or a clean two-of-two cross-device match was found.
	ConfidenceHigh Confidence = iota
	// ConfidenceLow means the value is a best guess from partial agreement.
	ConfidenceLow
	// ConfidenceFailed means no recoverable agreement was found; the
	// returned bytes are copy A1 verbatim, per spec section 9.
	ConfidenceFailed
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceLow:
		return "LOW"
	case ConfidenceFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("confidence(%d)", uint8(c))
	}
}

// Voter reads and writes a field's four physical copies across the two NV
// devices of bus.
type Voter struct {
	bus    nvbus.Bus
	logger satlog.Logger
}

// New returns a Voter operating over bus, logging through logger.
func New(bus nvbus.Bus, logger satlog.Logger) *Voter {
	if logger == nil {
		logger = satlog.NopLogger{}
	}
	return &Voter{bus: bus, logger: logger}
}

// Write stores buf to all four physical copies (A1, A2, B1, B2) of the
// field at addr with the given width, in that order. Every copy is
// attempted even after a failure; the overall result is the conjunction of
// all four device writes, reported as the first error seen.
func (v *Voter) Write(addr uint32, width int, buf []byte) error {
	if len(buf) != width {
		return fmt.Errorf("raid: write: buf length %d != width %d", len(buf), width)
	}
	w := uint32(width)
	steps := []struct {
		dev  nvbus.Device
		addr uint32
	}{
		{nvbus.DeviceA, addr},
		{nvbus.DeviceA, addr + w},
		{nvbus.DeviceB, addr},
		{nvbus.DeviceB, addr + w},
	}
	var firstErr error
	for _, s := range steps {
		if err := v.bus.WriteBytes(s.dev, s.addr, buf); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("raid: write device %v@%d: %w", s.dev, s.addr, err)
		}
	}
	return firstErr
}

type copyResult struct {
	bytes []byte
	ok    bool
}

func (v *Voter) readCopy(dev nvbus.Device, addr uint32, width int) copyResult {
	b, err := v.bus.ReadBytes(dev, addr, width)
	if err != nil {
		return copyResult{bytes: make([]byte, width), ok: false}
	}
	return copyResult{bytes: b, ok: true}
}

// Read reconstructs the field at addr/width from its four physical copies,
// following the case analysis of spec section 4.2.
func (v *Voter) Read(addr uint32, width int) ([]byte, Confidence, error) {
	w := uint32(width)
	a1 := v.readCopy(nvbus.DeviceA, addr, width)
	a2 := v.readCopy(nvbus.DeviceA, addr+w, width)
	b1 := v.readCopy(nvbus.DeviceB, addr, width)
	b2 := v.readCopy(nvbus.DeviceB, addr+w, width)

	aAgree := bytes.Equal(a1.bytes, a2.bytes)
	bAgree := bytes.Equal(b1.bytes, b2.bytes)

	switch {
	case aAgree && bAgree:
		if bytes.Equal(a1.bytes, b1.bytes) {
			return a1.bytes, ConfidenceHigh, nil
		}
		return v.resolveDisagreement(addr, a1, b1)

	case aAgree && !bAgree:
		// Devices disagree by definition here, so this can never be full
		// agreement even when A's own pair read cleanly.
		v.logger.Log(satlog.LocationRAID, satlog.CodeInconsistentData, false)
		return a1.bytes, ConfidenceLow, nil

	case !aAgree && bAgree:
		v.logger.Log(satlog.LocationRAID, satlog.CodeInconsistentData, false)
		return b1.bytes, ConfidenceLow, nil

	default:
		return v.crossMatch(addr, a1, a2, b1, b2)
	}
}

// resolveDisagreement handles "both devices internally consistent but
// disagree": prefer the device whose read succeeded; if both succeeded,
// prefer the copy whose longest same-byte run is shortest.
func (v *Voter) resolveDisagreement(addr uint32, a1, b1 copyResult) ([]byte, Confidence, error) {
	if a1.ok && !b1.ok {
		v.logger.Log(satlog.LocationRAID, satlog.CodeInconsistentData, false)
		return a1.bytes, ConfidenceLow, nil
	}
	if b1.ok && !a1.ok {
		v.logger.Log(satlog.LocationRAID, satlog.CodeInconsistentData, false)
		return b1.bytes, ConfidenceLow, nil
	}

	runA := LongestSameByteRun(a1.bytes)
	runB := LongestSameByteRun(b1.bytes)
	v.logger.Log(satlog.LocationRAID, satlog.CodeInconsistentData, false)

	winner, winRun, otherRun := a1.bytes, runA, runB
	if runB < runA {
		winner, winRun, otherRun = b1.bytes, runB, runA
	}
	if winRun == otherRun && len(winner) > 2 && winRun == len(winner) {
		v.logger.Log(satlog.LocationRAID, satlog.CodeAllSameVal, false)
	}
	return winner, ConfidenceLow, nil
}

// crossMatch handles "neither device's pair matches internally": try the
// four cross comparisons in spec order, requiring both contributors to
// have read successfully.
func (v *Voter) crossMatch(addr uint32, a1, a2, b1, b2 copyResult) ([]byte, Confidence, error) {
	candidates := []struct {
		x, y copyResult
	}{
		{a1, b1},
		{a1, b2},
		{a2, b1},
		{a2, b2},
	}
	for _, c := range candidates {
		if c.x.ok && c.y.ok && bytes.Equal(c.x.bytes, c.y.bytes) {
			return c.x.bytes, ConfidenceHigh, nil
		}
	}
	v.logger.Log(satlog.LocationRAID, satlog.CodeBadData, true)
	return a1.bytes, ConfidenceFailed, nil
}
