package errorlog

import (
	"time"

	"github.com/cubesat-fc/satstate/raid"
	"github.com/cubesat-fc/satstate/satlog"
)

// Persistor moves Stack contents to and from NV through a raid.Voter. It
// takes the error-count and error-log addresses as constructor parameters
// rather than importing satstate's address map, keeping errorlog a leaf
// package the coordinator depends on.
type Persistor struct {
	voter      *raid.Voter
	logger     satlog.Logger
	countAddr  uint32
	logAddr    uint32
	maxEntries int
}

// NewPersistor returns a Persistor bounded to maxEntries records, reading
// and writing through voter.
func NewPersistor(voter *raid.Voter, logger satlog.Logger, countAddr, logAddr uint32, maxEntries int) *Persistor {
	if logger == nil {
		logger = satlog.NopLogger{}
	}
	return &Persistor{voter: voter, logger: logger, countAddr: countAddr, logAddr: logAddr, maxEntries: maxEntries}
}

// Flush writes the stack's current snapshot to NV: a 1-byte saturated
// count, followed by count*RecordSize bytes of records. If confirm is set,
// it reads the region back and compares, logging INCONSISTENT_DATA on any
// mismatch; a mismatch does not cause Flush to return an error, matching
// the "always logged, never thrown" error model of spec section 7.
func (p *Persistor) Flush(stack *Stack, mutexTimeout time.Duration, confirm bool) error {
	snap, ok := stack.Snapshot(mutexTimeout)
	if !ok {
		p.logger.Log(satlog.LocationErrorLog, satlog.CodeEquistackMutexTimeout, false)
	}

	count := len(snap)
	if count > p.maxEntries {
		count = p.maxEntries
	}
	snap = snap[:count]

	if err := p.voter.Write(p.countAddr, 1, []byte{byte(count)}); err != nil {
		return err
	}

	if count > 0 {
		payload := make([]byte, 0, count*RecordSize)
		for _, r := range snap {
			payload = append(payload, r.Encode()...)
		}
		if err := p.voter.Write(p.logAddr, len(payload), payload); err != nil {
			return err
		}
	}

	if confirm {
		p.confirmFlush(count, snap)
	}
	return nil
}

func (p *Persistor) confirmFlush(count int, snap []Record) {
	gotCountBytes, _, err := p.voter.Read(p.countAddr, 1)
	if err != nil || int(gotCountBytes[0]) != count {
		p.logger.Log(satlog.LocationErrorLog, satlog.CodeInconsistentData, false)
		return
	}
	if count == 0 {
		return
	}
	width := count * RecordSize
	gotPayload, _, err := p.voter.Read(p.logAddr, width)
	if err != nil {
		p.logger.Log(satlog.LocationErrorLog, satlog.CodeInconsistentData, false)
		return
	}
	want := make([]byte, 0, width)
	for _, r := range snap {
		want = append(want, r.Encode()...)
	}
	for i := range want {
		if want[i] != gotPayload[i] {
			p.logger.Log(satlog.LocationErrorLog, satlog.CodeInconsistentData, false)
			return
		}
	}
}

// Populate reads the persisted count and records from NV and loads them
// into stack, matching populate_error_log in spec section 4.5: an
// over-maximum stored count is clamped (not skipped) with an OUT_OF_BOUNDS
// log, and the maximum allowed records are still pushed.
func (p *Persistor) Populate(stack *Stack) error {
	countBytes, _, err := p.voter.Read(p.countAddr, 1)
	if err != nil {
		return err
	}
	count := int(countBytes[0])
	if count > p.maxEntries {
		p.logger.Log(satlog.LocationErrorLog, satlog.CodeOutOfBounds, false)
		count = p.maxEntries
	}
	if count == 0 {
		stack.Replace(nil)
		return nil
	}

	width := count * RecordSize
	payload, _, err := p.voter.Read(p.logAddr, width)
	if err != nil {
		return err
	}
	records := make([]Record, count)
	for i := 0; i < count; i++ {
		records[i] = DecodeRecord(payload[i*RecordSize : (i+1)*RecordSize])
	}
	stack.Replace(records)
	return nil
}
