package errorlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushEvictsOldest(t *testing.T) {
	s := NewStack(2)
	s.Push(Record{Code: 1})
	s.Push(Record{Code: 2})
	s.Push(Record{Code: 3})

	snap, ok := s.Snapshot(time.Second)
	require.True(t, ok)
	require.Len(t, snap, 2)
	assert.Equal(t, uint8(2), snap[0].Code)
	assert.Equal(t, uint8(3), snap[1].Code)
}

func TestRecordEncodeDecodeRoundTrip(t *testing.T) {
	r := Record{Code: 5, Priority: true, Timestamp: 123456, Data: 777}
	got := DecodeRecord(r.Encode())
	assert.Equal(t, r, got)
}

func TestStackReplace(t *testing.T) {
	s := NewStack(4)
	s.Push(Record{Code: 1})
	s.Replace([]Record{{Code: 9}, {Code: 10}})
	assert.Equal(t, 2, s.Len())
}
