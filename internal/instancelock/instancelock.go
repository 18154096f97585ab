// Package instancelock implements the file-based single-instance guard
// named in spec.md: only one kernel may run against a given data_dir
// at a time. Acquiring an already-held lock returns a kerr
// CapabilityMissing-style error with code "instance_lock_held" so
// callers (the gate harness in particular) can retry a bounded number
// of times before giving up.
package instancelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ninjra/autocapture-prime-sub005/internal/atomicfile"
	"github.com/ninjra/autocapture-prime-sub005/internal/kerr"
)

// StaleAfter is how long a lock file may go without a heartbeat
// refresh before a new Acquire treats its holder as dead and reclaims
// it. A crashed process leaves no way to signal liveness portably
// (Windows has no POSIX kill-0), so staleness is inferred from the
// lock file's own age instead of probing the recorded PID.
const StaleAfter = 30 * time.Second

// Path returns the canonical instance lock location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "state", "instance.lock")
}

// Lock holds an acquired instance lock; Release must be called to
// free it. Heartbeat should be called periodically while the lock is
// held so other processes' staleness checks see it as live.
type Lock struct {
	path string
}

// Acquire takes the instance lock for dataDir, stamping it with the
// current process id. If the lock file exists, is younger than
// StaleAfter, and names a different pid, Acquire fails with
// kerr.CapabilityMissing / "instance_lock_held".
func Acquire(dataDir string) (*Lock, error) {
	path := Path(dataDir)
	if holderPID, held := currentHolder(path); held {
		return nil, kerr.New(kerr.CapabilityMissing, "instance_lock_held",
			fmt.Sprintf("instance lock %s held by pid %d", path, holderPID))
	}
	if err := atomicfile.WriteText(path, strconv.Itoa(os.Getpid())); err != nil {
		return nil, err
	}
	return &Lock{path: path}, nil
}

// currentHolder reports the PID recorded in the lock file at path, and
// whether it should be treated as held by another live process. A
// missing, unparseable, self-owned, or stale (older than StaleAfter)
// lock file is reported as not held.
func currentHolder(path string) (int, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, false
	}
	if pid == os.Getpid() {
		return pid, false
	}
	if time.Since(info.ModTime()) > StaleAfter {
		return pid, false
	}
	return pid, true
}

// Heartbeat refreshes the lock file's modification time so other
// processes' staleness checks keep treating it as live.
func (l *Lock) Heartbeat() error {
	if l == nil {
		return nil
	}
	return atomicfile.WriteText(l.path, strconv.Itoa(os.Getpid()))
}

// Release removes the lock file, freeing it for the next Acquire.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return os.Remove(l.path)
}
