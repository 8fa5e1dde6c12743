// FILE: log/batchfile_test.go
package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// TestBatchFileDestinationResolution verifies URI parsing, the implicit
// file scheme, and the unknown-scheme configuration error
func TestBatchFileDestinationResolution(t *testing.T) {
	tmpDir := t.TempDir()

	// Explicit file scheme ensures the directory exists
	target := filepath.Join(tmpDir, "a", "b")
	_, err := NewBatchFileLogger("file://"+target, BatchFileOptions{})
	require.NoError(t, err)
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// No "://" implies file with the whole string as a path
	bare := filepath.Join(tmpDir, "bare")
	_, err = NewBatchFileLogger(bare, BatchFileOptions{})
	require.NoError(t, err)
	_, err = os.Stat(bare)
	require.NoError(t, err)

	// Unknown scheme is fatal at construction
	_, err = NewBatchFileLogger("ftp://somewhere", BatchFileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

// TestBatchFileWritesBatch verifies an explicit flush joins buffered
// records into one timestamp-named file
func TestBatchFileWritesBatch(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		DefaultLevel:  LevelInfo,
		FlushDelay:    time.Hour, // keep the timer out of this test
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("first"))
	require.NoError(t, logger.Log("second"))
	assert.Equal(t, 2, logger.Len())

	require.NoError(t, logger.Flush())
	assert.Equal(t, 0, logger.Len())

	names := listDir(t, tmpDir)
	require.Len(t, names, 1)

	content, err := os.ReadFile(filepath.Join(tmpDir, names[0]))
	require.NoError(t, err)
	assert.Equal(t, "[INFO]: first\n[INFO]: second\n", string(content))
}

// TestBatchFileTimedAutoFlush verifies the scenario from the contract:
// one message, no explicit flush, exactly one file within the delay bound
func TestBatchFileTimedAutoFlush(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		FlushDelay:    50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("held message"))
	assert.Empty(t, listDir(t, tmpDir), "nothing written before the delay")

	time.Sleep(100 * time.Millisecond)

	names := listDir(t, tmpDir)
	require.Len(t, names, 1) // exactly one batch
	content, err := os.ReadFile(filepath.Join(tmpDir, names[0]))
	require.NoError(t, err)
	assert.Contains(t, string(content), "held message")
}

// TestBatchFileUnsetSizeFlushesEveryCall verifies the unbuffered default
// produces one file per log call
func TestBatchFileUnsetSizeFlushesEveryCall(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{
		DisableMirror: true,
		NameFormat:    "2006-01-02T15-04-05.000000000.log",
		FlushDelay:    time.Hour,
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("one"))
	require.NoError(t, logger.Log("two"))

	assert.Len(t, listDir(t, tmpDir), 2)
}

// TestBatchFileUnimplementedScheme verifies flushing a non-empty buffer
// against an s3 destination reports the distinct not-implemented condition
func TestBatchFileUnimplementedScheme(t *testing.T) {
	logger, err := NewBatchFileLogger("s3://bucket/key", BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		FlushDelay:    time.Hour,
	})
	require.NoError(t, err, "the scheme is recognized, construction succeeds")

	require.NoError(t, logger.Log("queued"))
	err = logger.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestinationUnavailable)
	assert.NotErrorIs(t, err, ErrUnsupportedScheme)

	// Suppressed flush swallows the condition and clears the buffer
	require.NoError(t, logger.Log("more"))
	require.NoError(t, logger.Flush(true))
	assert.Equal(t, 0, logger.Len())
}

// TestBatchFileRetainsOnUnsuppressedFailure verifies records survive an
// unsuppressed write failure for a later retry
func TestBatchFileRetainsOnUnsuppressedFailure(t *testing.T) {
	logger, err := NewBatchFileLogger("s3://bucket/key", BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		FlushDelay:    time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, logger.Log("keep me"))
	require.Error(t, logger.Flush())
	assert.Equal(t, 1, logger.Len())
}

// TestBatchFileFlushCancelsTimer verifies an explicit flush makes the
// pending auto-flush redundant
func TestBatchFileFlushCancelsTimer(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{
		DisableMirror: true,
		NameFormat:    "2006-01-02T15-04-05.000000000.log",
		MaxBufferSize: 10,
		FlushDelay:    50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("flushed explicitly"))
	require.NoError(t, logger.Flush())
	require.Len(t, listDir(t, tmpDir), 1)

	// The cancelled timer must not produce a second (empty) batch
	time.Sleep(120 * time.Millisecond)
	assert.Len(t, listDir(t, tmpDir), 1)
}

// TestBatchFileAsyncTimer verifies the auto-flush timer can run as a
// cooperative task on a scheduler
func TestBatchFileAsyncTimer(t *testing.T) {
	sched, err := NewScheduler(2)
	require.NoError(t, err)
	defer sched.Release()

	tmpDir := t.TempDir()
	logger, err := NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		FlushDelay:    30 * time.Millisecond,
		UseAsync:      true,
		Scheduler:     sched,
	})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log("task mode"))
	assert.Eventually(t, func() bool {
		return len(listDir(t, tmpDir)) == 1
	}, time.Second, 10*time.Millisecond)

	// Async timer without a scheduler is a configuration error
	_, err = NewBatchFileLogger("file://"+tmpDir, BatchFileOptions{UseAsync: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchedulerRequired)
}

// TestBatchFileAutoFlushErrorHandler verifies unsuppressed failures of a
// timer-triggered flush reach the configured handler, there being no
// caller to propagate to
func TestBatchFileAutoFlushErrorHandler(t *testing.T) {
	errCh := make(chan error, 1)
	logger, err := NewBatchFileLogger("s3://bucket/key", BatchFileOptions{
		DisableMirror: true,
		MaxBufferSize: 10,
		FlushDelay:    20 * time.Millisecond,
		ErrorHandler: func(err error) {
			select {
			case errCh <- err:
			default:
			}
		},
	})
	require.NoError(t, err)

	require.NoError(t, logger.Log("doomed"))
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrDestinationUnavailable)
	case <-time.After(time.Second):
		t.Fatal("auto-flush error never reached the handler")
	}
}
