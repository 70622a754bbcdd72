package satstate

import (
	"encoding/binary"
	"fmt"
)

// FieldID names one persisted field for the C2 codec and for the
// ground-commanded FlushCustom maintenance path.
type FieldID uint8

const (
	FieldSecsSinceLaunch FieldID = iota
	FieldRebootCount
	FieldSatState
	FieldSatEventHistory
	FieldProgMemRewritten
	FieldRadioReviveTimestamp
	FieldPersistentChargingData
	FieldErrorCount
)

func (f FieldID) String() string {
	switch f {
	case FieldSecsSinceLaunch:
		return "secs_since_launch"
	case FieldRebootCount:
		return "reboot_count"
	case FieldSatState:
		return "sat_state"
	case FieldSatEventHistory:
		return "sat_event_history"
	case FieldProgMemRewritten:
		return "prog_mem_rewritten"
	case FieldRadioReviveTimestamp:
		return "radio_revive_timestamp"
	case FieldPersistentChargingData:
		return "persistent_charging_data"
	case FieldErrorCount:
		return "error_count"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// FieldDescriptor binds a field to its fixed NV address and on-wire width,
// plus the functions that move it between a PersistentState and raw bytes.
// Addresses are the start of copy A; the RAID voter (package raid) derives
// the other three copy addresses from Address and Width on its own.
type FieldDescriptor struct {
	ID      FieldID
	Address uint32
	Width   int
	Encode  func(s PersistentState) []byte
	Decode  func(s *PersistentState, buf []byte) error
}

func fixedWidthCheck(field FieldID, want int, buf []byte) error {
	if len(buf) != want {
		return fmt.Errorf("satstate: field %s: want %d bytes, got %d", field, want, len(buf))
	}
	return nil
}

// fieldDescriptors is keyed by FieldID and is the single source of truth
// linking a field to its address map entry (addresses.go) and codec.
var fieldDescriptors = map[FieldID]FieldDescriptor{
	FieldSecsSinceLaunch: {
		ID: FieldSecsSinceLaunch, Address: AddrSecsSinceLaunch, Width: 4,
		Encode: func(s PersistentState) []byte { return EncodeUint32(s.SecsSinceLaunch) },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldSecsSinceLaunch, 4, buf); err != nil {
				return err
			}
			s.SecsSinceLaunch = DecodeUint32(buf)
			return nil
		},
	},
	FieldRebootCount: {
		ID: FieldRebootCount, Address: AddrRebootCount, Width: 1,
		Encode: func(s PersistentState) []byte { return []byte{s.RebootCount} },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldRebootCount, 1, buf); err != nil {
				return err
			}
			s.RebootCount = buf[0]
			return nil
		},
	},
	FieldSatState: {
		ID: FieldSatState, Address: AddrSatState, Width: 1,
		Encode: func(s PersistentState) []byte { return []byte{byte(s.SatState)} },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldSatState, 1, buf); err != nil {
				return err
			}
			s.SatState = SatState(buf[0])
			return nil
		},
	},
	FieldSatEventHistory: {
		ID: FieldSatEventHistory, Address: AddrSatEventHistory, Width: 1,
		Encode: func(s PersistentState) []byte { return []byte{s.EventHistory.Encode()} },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldSatEventHistory, 1, buf); err != nil {
				return err
			}
			s.EventHistory = DecodeSatEventHistory(buf[0])
			return nil
		},
	},
	FieldProgMemRewritten: {
		ID: FieldProgMemRewritten, Address: AddrProgMemRewritten, Width: 1,
		Encode: func(s PersistentState) []byte { return []byte{boolByte(s.ProgMemRewritten)} },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldProgMemRewritten, 1, buf); err != nil {
				return err
			}
			s.ProgMemRewritten = buf[0] != 0
			return nil
		},
	},
	FieldRadioReviveTimestamp: {
		ID: FieldRadioReviveTimestamp, Address: AddrRadioReviveTimestamp, Width: 4,
		Encode: func(s PersistentState) []byte { return EncodeUint32(s.RadioReviveTimestamp) },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldRadioReviveTimestamp, 4, buf); err != nil {
				return err
			}
			s.RadioReviveTimestamp = DecodeUint32(buf)
			return nil
		},
	},
	FieldPersistentChargingData: {
		ID: FieldPersistentChargingData, Address: AddrPersistentChargingData, Width: 1,
		Encode: func(s PersistentState) []byte { return []byte{s.ChargingData.Encode()} },
		Decode: func(s *PersistentState, buf []byte) error {
			if err := fixedWidthCheck(FieldPersistentChargingData, 1, buf); err != nil {
				return err
			}
			s.ChargingData = DecodePersistentChargingData(buf[0])
			return nil
		},
	},
	FieldErrorCount: {
		ID: FieldErrorCount, Address: AddrErrorCount, Width: 1,
		// ErrorCount is not a PersistentState field: it is the errorlog
		// stack's own length prefix. Encode/Decode are unused for this
		// entry; it is listed so Descriptor reports an address and width
		// from this table for the error region too.
		Encode: func(s PersistentState) []byte { return nil },
		Decode: func(s *PersistentState, buf []byte) error { return nil },
	},
}

// Descriptor returns the field descriptor for id, or false if id is unknown.
func Descriptor(id FieldID) (FieldDescriptor, bool) {
	d, ok := fieldDescriptors[id]
	return d, ok
}

// AllFieldIDs returns every field the codec knows about, in a stable order,
// excluding FieldErrorCount which is handled separately by errorlog.
func AllFieldIDs() []FieldID {
	return []FieldID{
		FieldSecsSinceLaunch,
		FieldRebootCount,
		FieldSatState,
		FieldSatEventHistory,
		FieldProgMemRewritten,
		FieldRadioReviveTimestamp,
		FieldPersistentChargingData,
	}
}

// EncodeField serialises the named field of s to its on-wire bytes.
func EncodeField(id FieldID, s PersistentState) ([]byte, error) {
	d, ok := fieldDescriptors[id]
	if !ok {
		return nil, fmt.Errorf("satstate: unknown field %v", id)
	}
	return d.Encode(s), nil
}

// DecodeFieldInto deserialises buf into the named field of s.
func DecodeFieldInto(id FieldID, s *PersistentState, buf []byte) error {
	d, ok := fieldDescriptors[id]
	if !ok {
		return fmt.Errorf("satstate: unknown field %v", id)
	}
	return d.Decode(s, buf)
}

// EncodeUint32 returns the little-endian 4-byte encoding of v, the wire
// format used throughout the NV address map (spec section 2).
func EncodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// DecodeUint32 is the inverse of EncodeUint32.
func DecodeUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
