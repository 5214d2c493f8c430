// Package lock keeps two gateway instances from serving the same state.
package lock

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another slashgw instance holds the lock")

// Owner describes the process recorded in a lock file.
type Owner struct {
	PID    int
	Listen string
}

// PIDLock is a single-instance lock implemented via a PID file + flock(2).
// The lock lives as long as the file descriptor stays open.
type PIDLock struct {
	path string
	f    *os.File
}

// Acquire takes an exclusive non-blocking lock at lockPath and records the
// current PID and listen address in it.
func Acquire(lockPath, listen string) (*PIDLock, error) {
	if lockPath == "" {
		return nil, fmt.Errorf("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			if owner, rerr := ReadOwner(lockPath); rerr == nil {
				return nil, fmt.Errorf("%w (pid %d, listen %s)", ErrLocked, owner.PID, owner.Listen)
			}
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	l := &PIDLock{path: lockPath, f: f}
	if err := l.writeOwner(Owner{PID: os.Getpid(), Listen: listen}); err != nil {
		_ = l.Release()
		return nil, err
	}
	return l, nil
}

func (l *PIDLock) writeOwner(o Owner) error {
	if err := l.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := l.f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(l.f, "%d\n%s\n", o.PID, o.Listen); err != nil {
		return fmt.Errorf("write lock owner: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

// ReadOwner parses the owner recorded in a lock file.
func ReadOwner(lockPath string) (Owner, error) {
	f, err := os.Open(lockPath)
	if err != nil {
		return Owner{}, err
	}
	defer f.Close()

	var o Owner
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return Owner{}, fmt.Errorf("lock file %s is empty", lockPath)
	}
	o.PID, err = strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return Owner{}, fmt.Errorf("lock file %s: bad pid: %w", lockPath, err)
	}
	if sc.Scan() {
		o.Listen = strings.TrimSpace(sc.Text())
	}
	return o, sc.Err()
}

// LockPathFor places the lock next to the state database.
func LockPathFor(statePath string) string {
	return filepath.Join(filepath.Dir(statePath), "slashgw.lock")
}

func (l *PIDLock) Path() string { return l.path }

func (l *PIDLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}
