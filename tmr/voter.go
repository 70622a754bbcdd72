// Package tmr implements the in-RAM triple-modular redundancy voter (C4):
// three independent copies of the cached state, corrected by 2-of-3
// majority before every mutation and resynchronised after every mutation.
package tmr

import (
	"bytes"

	"github.com/cubesat-fc/satstate/satlog"
)

// Cell is the structural contract a redundant copy must satisfy: a stable
// byte encoding for comparison, and the ability to be overwritten from
// another copy's bytes. satstate.PersistentState implements Cell without
// this package importing satstate, keeping tmr a leaf package.
type Cell interface {
	Bytes() []byte
	LoadBytes(buf []byte) error
}

// Voter corrects and resynchronises a trio of Cell values.
type Voter struct {
	logger satlog.Logger
}

// New returns a Voter that logs corrections through logger.
func New(logger satlog.Logger) *Voter {
	if logger == nil {
		logger = satlog.NopLogger{}
	}
	return &Voter{logger: logger}
}

// CorrectErrors byte-compares the three copies and repairs any minority
// divergence, following spec section 4.3:
//   - all three equal: no action.
//   - exactly one differs: overwrite it from either of the matching pair.
//   - all three differ pairwise: copy #1 (a) is authoritative; b and c are
//     overwritten from it.
//
// It returns true if a correction was applied.
func (v *Voter) CorrectErrors(a, b, c Cell) (bool, error) {
	ab := bytes.Equal(a.Bytes(), b.Bytes())
	bc := bytes.Equal(b.Bytes(), c.Bytes())
	ac := bytes.Equal(a.Bytes(), c.Bytes())

	switch {
	case ab && bc:
		return false, nil

	case ab && !bc:
		v.logger.Log(satlog.LocationTMR, satlog.CodeCorrupted, false)
		return true, c.LoadBytes(a.Bytes())

	case ac && !ab:
		v.logger.Log(satlog.LocationTMR, satlog.CodeCorrupted, false)
		return true, b.LoadBytes(a.Bytes())

	case bc && !ab:
		v.logger.Log(satlog.LocationTMR, satlog.CodeCorrupted, false)
		return true, a.LoadBytes(b.Bytes())

	default:
		// All three differ pairwise: a is authoritative.
		v.logger.Log(satlog.LocationTMR, satlog.CodeCorrupted, false)
		if err := b.LoadBytes(a.Bytes()); err != nil {
			return true, err
		}
		return true, c.LoadBytes(a.Bytes())
	}
}

// SyncRedundancy overwrites b and c from a, the primary copy. Called after
// every mutation to keep the trio bit-identical.
func (v *Voter) SyncRedundancy(a, b, c Cell) error {
	if err := b.LoadBytes(a.Bytes()); err != nil {
		return err
	}
	return c.LoadBytes(a.Bytes())
}
