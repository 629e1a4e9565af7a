package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	relErrors "github.com/relcut/relcut/internal/errors"
)

// Locker prevents concurrent release runs against one working tree.
// The pipeline assumes exclusive ownership of the repository for the
// duration of a run; this makes that assumption enforceable.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	acquired bool
}

// New creates a Locker for the specified repository path
func New(repoPath string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, relErrors.NewLockError("", 0,
			relErrors.Wrap(relErrors.ErrLockAcquisitionFailure,
				"relcut currently only supports Unix-like operating systems (Linux, macOS, BSD)"))
	}

	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
	lockFile := filepath.Join(os.TempDir(), fmt.Sprintf("relcut-%s.lock", repoHash))

	return &Locker{
		lockFile: lockFile,
		pid:      os.Getpid(),
		acquired: false,
	}, nil
}

// Acquire tries to acquire the lock
func (l *Locker) Acquire() error {
	err := l.tryCreateLock()
	if err == nil {
		return nil
	} else if os.IsExist(err) {
		// Only try to acquire an existing lock if the error is specifically
		// about the file already existing
		return l.tryAcquireExistingLock()
	}

	// For other errors, return immediately without trying to acquire an existing lock
	return err
}

// tryCreateLock attempts to create and lock a new lock file
func (l *Locker) tryCreateLock() error {
	var err error

	// O_EXCL with O_CREATE ensures the file is created atomically
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		// Pass through the original error so os.IsExist() can detect it
		if os.IsExist(err) {
			return err
		}
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to create lock file"))
	}

	if err = l.acquireFlock(); err != nil {
		l.closeFileDescriptor()
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to acquire lock on newly created lock file"))
	}

	if err = l.writePidToLockFile(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			// Log the release error but return the original error
			return relErrors.Wrap(err, fmt.Sprintf("failed to write PID and failed to release lock: %v", releaseErr))
		}
		return err
	}

	l.acquired = true
	return nil
}

// tryAcquireExistingLock acquires a lock on an existing lock file
func (l *Locker) tryAcquireExistingLock() error {
	var err error
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_RDWR, 0666)
	if err != nil {
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to open existing lock file"))
	}

	if err = l.acquireFlock(); err != nil {
		l.closeFileDescriptor()

		// Older Unix systems report EWOULDBLOCK distinct from EAGAIN; check
		// both and treat them the same for portability.
		if relErrors.Is(err, syscall.EWOULDBLOCK) || relErrors.Is(err, syscall.EAGAIN) {
			return l.handleBlockedLock()
		}

		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to acquire lock"))
	}

	if err = l.resetAndWritePid(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return relErrors.Wrap(err, fmt.Sprintf("failed to reset/write PID and failed to release lock: %v", releaseErr))
		}
		return err
	}

	l.acquired = true
	return nil
}

// handleBlockedLock handles locks held by another process
// and attempts to recover from stale locks
func (l *Locker) handleBlockedLock() error {
	otherPid, pidErr := l.readLockFilePid()
	if pidErr != nil {
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(pidErr, "another relcut release is running, but couldn't identify its PID"))
	}

	if isProcessRunning(otherPid) {
		return relErrors.NewLockError(l.lockFile, otherPid, relErrors.ErrAlreadyRunning)
	}

	return l.handleStaleLock(otherPid)
}

// acquireFlock gets an exclusive non-blocking lock
func (l *Locker) acquireFlock() error {
	return syscall.Flock(int(l.lockFd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

// resetAndWritePid clears the file and writes the current PID
func (l *Locker) resetAndWritePid() error {
	if err := l.lockFd.Truncate(0); err != nil {
		return relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(err, "failed to truncate lock file"))
	}

	return l.writePidToLockFile()
}

// writePidToLockFile writes PID to the lock file
func (l *Locker) writePidToLockFile() error {
	_, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0)
	if err != nil {
		return relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(err, "failed to write PID to lock file"))
	}
	return nil
}

// closeFileDescriptor closes the lock file descriptor
func (l *Locker) closeFileDescriptor() {
	if l.lockFd != nil {
		_ = l.lockFd.Close()
		l.lockFd = nil
	}
}

// isProcessRunning checks if a process exists using signal 0
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// handleStaleLock removes and recreates a stale lock
func (l *Locker) handleStaleLock(otherPid int) error {
	l.closeFileDescriptor()

	if err := os.Remove(l.lockFile); err != nil {
		return relErrors.NewLockError(l.lockFile, otherPid,
			relErrors.Wrap(err, fmt.Sprintf("found stale lock file from PID %d, but failed to remove it", otherPid)))
	}

	var err error
	l.lockFd, err = os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		if os.IsExist(err) {
			return relErrors.NewLockError(l.lockFile, 0,
				relErrors.Wrap(err, "another relcut release took the lock immediately after we removed the stale lock"))
		}
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to open lock file after removing stale lock"))
	}

	if err = l.acquireFlock(); err != nil {
		l.closeFileDescriptor()
		return relErrors.NewLockError(l.lockFile, 0,
			relErrors.Wrap(err, "failed to acquire lock even after removing stale lock"))
	}

	if err = l.writePidToLockFile(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return relErrors.Wrap(err, fmt.Sprintf("failed to write PID and failed to release lock: %v", releaseErr))
		}
		return err
	}

	l.acquired = true
	return nil
}

// readLockFilePid reads and parses the PID from the lock file
func (l *Locker) readLockFilePid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, relErrors.Wrap(err, "failed to read lock file")
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, relErrors.Wrap(err, "invalid PID in lock file")
	}

	return pid, nil
}

// Release releases the lock if it was acquired
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error

	// Verify the descriptor is still usable before attempting to unlock
	fd := l.lockFd.Fd()
	var stat syscall.Stat_t
	if statErr := syscall.Fstat(int(fd), &stat); statErr != nil {
		err = relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(statErr, "failed to stat lock file - file descriptor is invalid"))
	} else if _, writeErr := l.lockFd.WriteAt([]byte{}, 0); writeErr != nil {
		err = relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(writeErr, "failed to write to lock file - file descriptor is invalid"))
	} else if flockErr := syscall.Flock(int(fd), syscall.LOCK_UN); flockErr != nil {
		err = relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(flockErr, "failed to release lock"))
	}

	// Always close the descriptor, even if previous operations failed
	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	l.acquired = false

	// Remove the lock file regardless of previous errors so the next run can
	// start clean; only report the failure if nothing worse happened already
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = relErrors.NewLockError(l.lockFile, l.pid,
			relErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
