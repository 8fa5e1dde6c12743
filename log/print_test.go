// FILE: log/print_test.go
package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPrintLoggerImmediate verifies records are emitted immediately with
// no buffering
func TestPrintLoggerImmediate(t *testing.T) {
	var out bytes.Buffer
	logger := NewPrintLogger(&out, "")

	require.NoError(t, logger.Log("hello", "world"))
	assert.Equal(t, "hello world\n", out.String())

	require.NoError(t, logger.Log(1, 2.5, true))
	assert.Equal(t, "hello world\n1 2.5 true\n", out.String())
}

// TestPrintLoggerLevels verifies the default level prefix and per-call
// overrides
func TestPrintLoggerLevels(t *testing.T) {
	var out bytes.Buffer
	logger := NewPrintLogger(&out, LevelDebug)

	require.NoError(t, logger.Log("default level"))
	require.NoError(t, logger.LogWith(LogOptions{Level: LevelWarning}, "explicit"))
	assert.Equal(t, "[DEBUG]: default level\n[WARNING]: explicit\n", out.String())
}

// TestPrintLoggerFlushNoop verifies Flush exists only to satisfy the
// contract
func TestPrintLoggerFlushNoop(t *testing.T) {
	var out bytes.Buffer
	logger := NewPrintLogger(&out, "")
	require.NoError(t, logger.Flush())
	require.NoError(t, logger.Flush(false))
	assert.Empty(t, out.String())
}

// TestDiscardLogger verifies the nil-logger substitute accepts everything
func TestDiscardLogger(t *testing.T) {
	require.NoError(t, Discard.Log("dropped"))
	require.NoError(t, Discard.Flush())
	assert.Equal(t, Discard, OrDiscard(nil))

	var out bytes.Buffer
	p := NewPrintLogger(&out, "")
	assert.Equal(t, Logger(p), OrDiscard(p))
}
