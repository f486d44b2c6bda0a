package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_CommitRenamesIntoPlace(t *testing.T) {
	dir := t.TempDir()
	resource := filepath.Join(dir, "refs", "heads", "main")

	f, err := AcquireFile(resource, FailImmediately{})
	require.NoError(t, err)

	_, err = f.Write([]byte("02a7a22d90d7c02fb494ed25551850b868e634f0\n"))
	require.NoError(t, err)

	require.NoError(t, f.Commit())

	data, err := os.ReadFile(resource)
	require.NoError(t, err)
	assert.Equal(t, "02a7a22d90d7c02fb494ed25551850b868e634f0\n", string(data))

	_, err = os.Stat(resource + ".lock")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(resource + ".lock.tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFile_ReleaseRemovesStaging(t *testing.T) {
	dir := t.TempDir()
	resource := filepath.Join(dir, "refs", "heads", "main")

	f, err := AcquireFile(resource, FailImmediately{})
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, f.Release())

	_, err = os.Stat(resource)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(resource + ".lock.tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireFile_FailImmediatelyWhenContended(t *testing.T) {
	dir := t.TempDir()
	resource := filepath.Join(dir, "refs", "heads", "main")

	first, err := AcquireFile(resource, FailImmediately{})
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquireFile(resource, FailImmediately{})
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestAcquireMarker_ReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	resource := filepath.Join(dir, "refs", "heads", "main")

	m, err := AcquireMarker(resource, FailImmediately{})
	require.NoError(t, err)
	require.NoError(t, m.Release())

	m2, err := AcquireMarker(resource, FailImmediately{})
	require.NoError(t, err)
	require.NoError(t, m2.Release())
}

func TestRetryWithTimeout_AcquiresAfterRelease(t *testing.T) {
	dir := t.TempDir()
	resource := filepath.Join(dir, "refs", "heads", "main")

	first, err := AcquireMarker(resource, FailImmediately{})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = first.Release()
	}()

	second, err := AcquireMarker(resource, RetryWithTimeout{Budget: time.Second, Interval: 5 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
