package satstate

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SatState is the satellite's last known operating mode at write time.
type SatState uint8

const (
	SatStateBoot SatState = iota
	SatStateAntennaDeploy
	SatStateIdle
	SatStateLowPower
	SatStateAttitudeAdjust
	SatStateDataTransmission
)

func (s SatState) String() string {
	switch s {
	case SatStateBoot:
		return "BOOT"
	case SatStateAntennaDeploy:
		return "ANTENNA_DEPLOY"
	case SatStateIdle:
		return "IDLE"
	case SatStateLowPower:
		return "LOW_POWER"
	case SatStateAttitudeAdjust:
		return "ATTITUDE_ADJUST"
	case SatStateDataTransmission:
		return "DATA_TRANSMISSION"
	default:
		return fmt.Sprintf("SAT_STATE(%d)", uint8(s))
	}
}

// SatEventHistory holds the seven monotonic latching mission-event flags
// (spec section 3, invariant 3): once a flag is set, no later update may
// clear it.
type SatEventHistory struct {
	AntennaDeployed  bool
	Lion1Charged     bool
	Lion2Charged     bool
	LifepoB1Charged  bool
	LifepoB2Charged  bool
	FirstFlash       bool
	ProgMemRewritten bool
}

const (
	bitAntennaDeployed = 1 << iota
	bitLion1Charged
	bitLion2Charged
	bitLifepoB1Charged
	bitLifepoB2Charged
	bitFirstFlash
	bitProgMemRewritten
)

// Encode packs the seven flags into the single on-wire byte.
func (h SatEventHistory) Encode() byte {
	var b byte
	if h.AntennaDeployed {
		b |= bitAntennaDeployed
	}
	if h.Lion1Charged {
		b |= bitLion1Charged
	}
	if h.Lion2Charged {
		b |= bitLion2Charged
	}
	if h.LifepoB1Charged {
		b |= bitLifepoB1Charged
	}
	if h.LifepoB2Charged {
		b |= bitLifepoB2Charged
	}
	if h.FirstFlash {
		b |= bitFirstFlash
	}
	if h.ProgMemRewritten {
		b |= bitProgMemRewritten
	}
	return b
}

// DecodeSatEventHistory unpacks the on-wire byte into the seven flags.
func DecodeSatEventHistory(b byte) SatEventHistory {
	return SatEventHistory{
		AntennaDeployed:  b&bitAntennaDeployed != 0,
		Lion1Charged:     b&bitLion1Charged != 0,
		Lion2Charged:     b&bitLion2Charged != 0,
		LifepoB1Charged:  b&bitLifepoB1Charged != 0,
		LifepoB2Charged:  b&bitLifepoB2Charged != 0,
		FirstFlash:       b&bitFirstFlash != 0,
		ProgMemRewritten: b&bitProgMemRewritten != 0,
	}
}

// Merge applies the monotonic latch: a flag in update only ever moves h's
// corresponding flag from false to true, mirroring update_sat_event_history
// in the original, which leaves a stored TRUE bit untouched when passed a
// FALSE input rather than treating FALSE as "clear".
func (h SatEventHistory) Merge(update SatEventHistory) SatEventHistory {
	return SatEventHistory{
		AntennaDeployed:  h.AntennaDeployed || update.AntennaDeployed,
		Lion1Charged:     h.Lion1Charged || update.Lion1Charged,
		Lion2Charged:     h.Lion2Charged || update.Lion2Charged,
		LifepoB1Charged:  h.LifepoB1Charged || update.LifepoB1Charged,
		LifepoB2Charged:  h.LifepoB2Charged || update.LifepoB2Charged,
		FirstFlash:       h.FirstFlash || update.FirstFlash,
		ProgMemRewritten: h.ProgMemRewritten || update.ProgMemRewritten,
	}
}

// Equal performs the field-by-field comparison called for by spec section 9:
// compare_sat_event_history in one revision of the original left its result
// variable without a definite initial value; per the spec's instructed
// resolution this assumes that initial value was meant to be true, so the
// result here starts true and every field narrows it with &&.
func (h SatEventHistory) Equal(other SatEventHistory) bool {
	result := true
	result = result && h.AntennaDeployed == other.AntennaDeployed
	result = result && h.Lion1Charged == other.Lion1Charged
	result = result && h.Lion2Charged == other.Lion2Charged
	result = result && h.LifepoB1Charged == other.LifepoB1Charged
	result = result && h.LifepoB2Charged == other.LifepoB2Charged
	result = result && h.FirstFlash == other.FirstFlash
	result = result && h.ProgMemRewritten == other.ProgMemRewritten
	return result
}

// PersistentChargingData is the battery-charging persistence record.
type PersistentChargingData struct {
	LiCausedReboot int8
}

// Encode returns the single-byte on-wire representation.
func (d PersistentChargingData) Encode() byte {
	return byte(d.LiCausedReboot)
}

// DecodePersistentChargingData unpacks the on-wire byte.
func DecodePersistentChargingData(b byte) PersistentChargingData {
	return PersistentChargingData{LiCausedReboot: int8(b)}
}

// Equal compares d against other. The original compare_persistent_charging_data
// compared data1->li_caused_reboot against itself, always returning true; per
// spec section 9 this is treated as a bug and fixed here to compare d vs other.
func (d PersistentChargingData) Equal(other PersistentChargingData) bool {
	return d.LiCausedReboot == other.LiCausedReboot
}

// ErrorRecordSize is sizeof(sat_error_t) in the on-wire layout.
const ErrorRecordSize = 8

// SatError is one entry of the bounded error-log stack (C7). Priority is
// carried from the original's sat_error_t so a future priority-aware split
// of the stack remains possible without a wire-format change; the stack
// itself stays unified, matching the revision of persistent_storage.c this
// spec was written against.
type SatError struct {
	Code      uint8
	Priority  bool
	Timestamp uint32
	Data      uint16
}

// EncodeSatError serialises e to its fixed ErrorRecordSize-byte layout.
func EncodeSatError(e SatError) []byte {
	buf := make([]byte, ErrorRecordSize)
	buf[0] = e.Code
	if e.Priority {
		buf[1] = 1
	}
	binary.LittleEndian.PutUint32(buf[2:6], e.Timestamp)
	binary.LittleEndian.PutUint16(buf[6:8], e.Data)
	return buf
}

// DecodeSatError deserialises a raw ErrorRecordSize-byte record.
func DecodeSatError(b []byte) SatError {
	return SatError{
		Code:      b[0],
		Priority:  b[1] != 0,
		Timestamp: binary.LittleEndian.Uint32(b[2:6]),
		Data:      binary.LittleEndian.Uint16(b[6:8]),
	}
}

// PersistentState is the full cached record (spec section 3). It is the
// value type threaded through the RAM TMR trio and reflected to NV by the
// coordinator; it carries no synchronisation of its own.
type PersistentState struct {
	SecsSinceLaunch      uint32
	RebootCount          uint8
	SatState             SatState
	EventHistory         SatEventHistory
	ProgMemRewritten     bool
	RadioReviveTimestamp uint32
	ChargingData         PersistentChargingData
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Bytes returns a canonical in-RAM encoding of the cache, used by the TMR
// voter's byte-compare step (spec section 4.3). This is not the NV wire
// layout — see codec.go for per-field addressing — just a flat, stable
// concatenation suitable for detecting any single-copy divergence.
func (s PersistentState) Bytes() []byte {
	buf := make([]byte, 0, 16)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], s.SecsSinceLaunch)
	buf = append(buf, tmp[:]...)
	buf = append(buf, s.RebootCount)
	buf = append(buf, byte(s.SatState))
	buf = append(buf, s.EventHistory.Encode())
	buf = append(buf, boolByte(s.ProgMemRewritten))
	binary.LittleEndian.PutUint32(tmp[:], s.RadioReviveTimestamp)
	buf = append(buf, tmp[:]...)
	buf = append(buf, s.ChargingData.Encode())
	return buf
}

// Equal reports whether s and other are bit-identical.
func (s PersistentState) Equal(other PersistentState) bool {
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// StateRecordSize is the width of the Bytes()/LoadBytes() canonical encoding.
const StateRecordSize = 13

// LoadBytes overwrites s in place from a buffer produced by Bytes(). It
// satisfies the tmr.Cell interface structurally, without this package
// importing tmr: PersistentState is the cell type the RAM voter corrects.
func (s *PersistentState) LoadBytes(buf []byte) error {
	if len(buf) != StateRecordSize {
		return fmt.Errorf("satstate: LoadBytes: want %d bytes, got %d", StateRecordSize, len(buf))
	}
	s.SecsSinceLaunch = binary.LittleEndian.Uint32(buf[0:4])
	s.RebootCount = buf[4]
	s.SatState = SatState(buf[5])
	s.EventHistory = DecodeSatEventHistory(buf[6])
	s.ProgMemRewritten = buf[7] != 0
	s.RadioReviveTimestamp = binary.LittleEndian.Uint32(buf[8:12])
	s.ChargingData = DecodePersistentChargingData(buf[12])
	return nil
}
