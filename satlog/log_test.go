package satlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerWritesOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger(&buf)
	l.now = func() time.Time { return time.Unix(0, 0).UTC() }

	l.Log(LocationRAID, CodeInconsistentData, true)
	l.Log(LocationTMR, CodeCorrupted, false)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "raid")
	assert.Contains(t, lines[0], "INCONSISTENT_DATA")
	assert.Contains(t, lines[0], "priority=true")
	assert.Contains(t, lines[1], "tmr")
	assert.Contains(t, lines[1], "CORRUPTED")
	assert.Contains(t, lines[1], "priority=false")
}

func TestNopLoggerDiscardsRecords(t *testing.T) {
	assert.NotPanics(t, func() {
		NopLogger{}.Log(LocationCoordinator, CodeBadData, true)
	})
}

func TestLocationAndCodeStringFallback(t *testing.T) {
	assert.Equal(t, "location(200)", Location(200).String())
	assert.Equal(t, "code(200)", Code(200).String())
	assert.Equal(t, "errorlog", LocationErrorLog.String())
	assert.Equal(t, "SPI_MUTEX_TIMEOUT", CodeSPIMutexTimeout.String())
}
