// Package lock implements spec.md §5's process-level mutual exclusion:
// at most one manager process may operate on a given home directory at
// a time, enforced by a named file lock keyed on a stable hash of the
// home path so two different homes never contend with each other.
// Grounded on the complete example repo hashgraph-solo-weaver's
// pkg/helm/manager.go, which uses github.com/gofrs/flock with a
// TryLockContext/timeout pattern against a lock file sitting next to the
// resource it protects.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clyde-pm/clyde/pkg/clydeerr"
	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

// HomeLock guards exclusive access to a single Clyde home directory for
// the lifetime of one command invocation.
type HomeLock struct {
	flock *flock.Flock
	path  string
}

// pathFor returns the lock file's location: a stable hash of the home
// path under the OS temp directory, so the lock survives even if the
// home directory itself does not exist yet. `setup` does not take it.
func pathFor(homeDir string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(homeDir)))
	name := "clyde-" + hex.EncodeToString(sum[:])[:16] + ".lock"
	return filepath.Join(os.TempDir(), name)
}

// Acquire attempts to take the home-wide lock within timeout, failing
// with ErrorKind::Busy if another process already holds it (spec.md §5:
// "On contention the second process fails with Busy before touching any
// state").
func Acquire(ctx context.Context, homeDir string, timeout time.Duration) (*HomeLock, error) {
	path := pathFor(homeDir)
	fl := flock.New(path)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, clydeerr.Wrap(clydeerr.Busy, "", fmt.Errorf("acquiring lock for %s: %w", homeDir, err))
	}
	if !locked {
		return nil, clydeerr.New(clydeerr.Busy, "", fmt.Sprintf("another clyde process is already using home %s", homeDir), nil)
	}

	log.WithField("home", homeDir).WithField("lockfile", path).Debug("acquired home lock")
	return &HomeLock{flock: fl, path: path}, nil
}

// Release gives up the lock. Safe to call multiple times.
func (h *HomeLock) Release() error {
	if h == nil || h.flock == nil {
		return nil
	}
	if err := h.flock.Unlock(); err != nil {
		return clydeerr.Wrap(clydeerr.IoError, "", fmt.Errorf("releasing lock %s: %w", h.path, err))
	}
	return nil
}
