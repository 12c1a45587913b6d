package channel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "chan.json"))
}

func TestReadChangedMissingFile(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	data, changed, err := f.ReadChanged()
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, data)
}

func TestReplaceThenRead(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Replace([]byte(`{"command":"HEARTBEAT"}`)))

	data, changed, err := f.ReadChanged()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.JSONEq(t, `{"command":"HEARTBEAT"}`, string(data))

	// Identical content reads as unchanged.
	data, changed, err = f.ReadChanged()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NotNil(t, data)

	// New content reads as changed again.
	require.NoError(t, f.Replace([]byte(`{"command":"GET_LIMITS"}`)))
	_, changed, err = f.ReadChanged()
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestReadChangedSeesOnlyLatest(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Replace([]byte(`first`)))
	require.NoError(t, f.Replace([]byte(`second`)))

	data, changed, err := f.ReadChanged()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "second", string(data))
}

func TestPrimeSuppressesStaleContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "chan.json")
	require.NoError(t, os.WriteFile(path, []byte(`stale command`), 0o644))

	f := New(path)
	f.Prime()

	_, changed, err := f.ReadChanged()
	require.NoError(t, err)
	assert.False(t, changed, "pre-existing content must not be replayed after Prime")
}

func TestReplaceIsAtomicRename(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Replace([]byte(`data`)))

	// The temp file must not linger after a successful replace.
	_, err := os.Stat(f.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestUnavailableWhenExternallyLocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "chan.json")

	// Simulate the external process holding the lock.
	ext := flock.New(path + ".lock")
	locked, err := ext.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer ext.Unlock()

	f := New(path, WithRetry(2, time.Millisecond))

	start := time.Now()
	err = f.Replace([]byte(`blocked`))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), time.Second, "give up quickly, never block the loop")

	_, _, err = f.ReadChanged()
	assert.ErrorIs(t, err, ErrUnavailable)
}
