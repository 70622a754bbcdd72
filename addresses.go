package satstate

import "time"

// NV address map (spec section 6). Each address names the start of copy-A;
// the RAID voter derives copy-B's address as addr+width on each device, and
// NV-B mirrors the same layout as NV-A.
const (
	AddrSecsSinceLaunch        uint32 = 20
	AddrRebootCount            uint32 = 30
	AddrSatState               uint32 = 34
	AddrSatEventHistory        uint32 = 38
	AddrProgMemRewritten       uint32 = 42
	AddrRadioReviveTimestamp   uint32 = 46
	AddrPersistentChargingData uint32 = 50

	// AddrProgramMemoryImage is reserved for the bootloader's own program
	// image region. This module never reads or writes it; it exists only so
	// address-space planning can account for the gap.
	AddrProgramMemoryImage uint32 = 60

	AddrErrorCount uint32 = 175080
	AddrErrorLog   uint32 = 175084
)

// Constants carried verbatim from EQUiSatOS's persistent_storage.h.
const (
	ErrorStackMax        = 16
	StorageMaxFieldSize  = 400
	OrbitalPeriodSeconds = 5580
)

// MutexWaitTimeout is the bounded wait for bus_cache_lock and the error
// stack's own mutex (MRAM_SPI_MUTEX_WAIT_TIME_TICKS in the original, derived
// there from 1000ms at the scheduler's tick rate).
const MutexWaitTimeout = 1000 * time.Millisecond
