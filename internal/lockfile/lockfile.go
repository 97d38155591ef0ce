// Package lockfile keeps two PitchIQ processes from sharing one state
// directory.
//
// The lock is an advisory file lock (gofrs/flock) on a file inside the
// directory, so the kernel drops it when the process exits for any reason.
package lockfile

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the state directory.
const LockFileName = "pitchiq.lock"

// ErrLocked is the cause of a LockError when another process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// Owner describes the process recorded in a lock file.
type Owner struct {
	PID       int
	StartedAt time.Time
	Running   bool
}

// Lock is a held state directory lock.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes an exclusive, non-blocking lock on stateDir, creating the
// directory if needed. A held lock yields a *LockError.
func Acquire(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", stateDir, err)
	}
	path := filepath.Join(stateDir, LockFileName)

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		owner, _ := ReadOwner(path)
		slog.Error("lockfile.Acquire: state directory is locked", "path", path, "owner_pid", owner.PID, "owner_running", owner.Running)
		return nil, &LockError{Path: path, Owner: owner, Cause: ErrLocked}
	}

	// Holder details are written only once the lock is ours.
	info := fmt.Sprintf("pid=%d\nstarted_at=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(info), 0o644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("write lock file %s: %w", path, err)
	}

	slog.Info("lockfile.Acquire: lock acquired", "path", path, "pid", os.Getpid())
	return &Lock{fl: fl, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock and removes the file. Calling it again is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	// Remove while still holding the lock so a new owner never loses its file.
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("lockfile.Release: remove failed", "path", l.path, "error", err)
	}
	err := l.fl.Unlock()
	l.fl = nil
	if err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	slog.Info("lockfile.Release: lock released", "path", l.path)
	return nil
}

// LockError reports a state directory already held by another process.
type LockError struct {
	Path  string
	Owner Owner
	Cause error
}

func (e *LockError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state directory is locked by another PitchIQ process (lock file %s)", e.Path)
	switch {
	case e.Owner.PID > 0 && e.Owner.Running:
		fmt.Fprintf(&b, "; held by running PID %d", e.Owner.PID)
	case e.Owner.PID > 0:
		fmt.Fprintf(&b, "; PID %d is not running, remove the file if no other instance uses this directory", e.Owner.PID)
	}
	return b.String()
}

func (e *LockError) Unwrap() error { return e.Cause }

// ReadOwner parses the holder details from a lock file.
func ReadOwner(path string) (Owner, error) {
	f, err := os.Open(path)
	if err != nil {
		return Owner{}, err
	}
	defer f.Close()

	var o Owner
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			o.PID, _ = strconv.Atoi(val)
		case "started_at":
			o.StartedAt, _ = time.Parse(time.RFC3339, val)
		}
	}
	if o.PID > 0 {
		o.Running = processRunning(o.PID)
	}
	return o, sc.Err()
}

// processRunning checks pid with signal 0.
func processRunning(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
