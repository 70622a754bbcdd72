package tmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCell is a minimal Cell for testing the voter in isolation from
// satstate.PersistentState.
type fakeCell struct {
	data []byte
}

func (f *fakeCell) Bytes() []byte { return f.data }

func (f *fakeCell) LoadBytes(buf []byte) error {
	f.data = append([]byte(nil), buf...)
	return nil
}

func TestCorrectErrorsNoDivergence(t *testing.T) {
	a := &fakeCell{data: []byte{1, 2, 3}}
	b := &fakeCell{data: []byte{1, 2, 3}}
	c := &fakeCell{data: []byte{1, 2, 3}}

	v := New(nil)
	corrected, err := v.CorrectErrors(a, b, c)
	require.NoError(t, err)
	assert.False(t, corrected)
}

// Seed case 4: RAM TMR correction — one copy diverges.
func TestCorrectErrorsSingleDivergence(t *testing.T) {
	a := &fakeCell{data: []byte{7}}
	b := &fakeCell{data: []byte{8}}
	c := &fakeCell{data: []byte{7}}

	v := New(nil)
	corrected, err := v.CorrectErrors(a, b, c)
	require.NoError(t, err)
	assert.True(t, corrected)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestCorrectErrorsAllDivergePicksFirst(t *testing.T) {
	a := &fakeCell{data: []byte{1}}
	b := &fakeCell{data: []byte{2}}
	c := &fakeCell{data: []byte{3}}

	v := New(nil)
	corrected, err := v.CorrectErrors(a, b, c)
	require.NoError(t, err)
	assert.True(t, corrected)
	assert.Equal(t, []byte{1}, b.Bytes())
	assert.Equal(t, []byte{1}, c.Bytes())
}

func TestSyncRedundancy(t *testing.T) {
	a := &fakeCell{data: []byte{9, 9}}
	b := &fakeCell{data: []byte{0, 0}}
	c := &fakeCell{data: []byte{1, 1}}

	v := New(nil)
	require.NoError(t, v.SyncRedundancy(a, b, c))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, a.Bytes(), c.Bytes())
}
