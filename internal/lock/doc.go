// Package lock provides file-based locking for the relcut application.
//
// A release run mutates the working tree, the local branch set, and remote
// state; two runs against the same repository would corrupt each other. This
// package guarantees at most one relcut run per repository by holding an
// exclusive flock on a repository-keyed lock file containing the owner PID.
// Stale locks left by dead processes are detected and reclaimed.
//
// # Usage
//
//	locker, err := lock.New("/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	if err := locker.Acquire(); err != nil {
//	    return err
//	}
//	defer locker.Release()
package lock
