package instancelock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/kerr"
	"github.com/stretchr/testify/require"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	lock2, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestSecondAcquireFailsWhileFirstHeld(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	require.NoError(t, err)
	defer lock.Release()

	_, err = Acquire(dir)
	require.Error(t, err)
	require.Equal(t, "instance_lock_held", kerr.CodeOf(err))
}

func TestStaleLockIsReclaimed(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("999999"), 0o644))
	stale := time.Now().Add(-StaleAfter - time.Second)
	require.NoError(t, os.Chtimes(path, stale, stale))

	lock, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestHeartbeatKeepsLockFresh(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir)
	require.NoError(t, err)
	defer lock.Release()

	require.NoError(t, lock.Heartbeat())
	_, err = Acquire(dir)
	require.Error(t, err)
}
