// Copyright (c) 2026 The Watt Authors
// SPDX-License-Identifier: MIT

// Package lock implements the daemon's single-instance guard: an advisory
// exclusive flock on a pid file. Grounded on the original watt source's
// lock.rs (nix::fcntl::Flock, exclusive-nonblock, PID-in-file on
// contention, --force override).
package lock

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// File holds an acquired advisory lock. Release must be called (directly
// or via a deferred call) to remove the pid file; the OS releases the
// flock itself on process exit regardless.
type File struct {
	path string
	fd   int
}

// Error reports why acquisition failed: ExistingPID is non-zero when the
// current holder's PID could be determined.
type Error struct {
	Path        string
	ExistingPID int
}

func (e *Error) Error() string {
	if e.ExistingPID == 0 {
		return fmt.Sprintf("failed to acquire lock at %s", e.Path)
	}
	return fmt.Sprintf("another watt daemon is running (PID: %d)", e.ExistingPID)
}

// Acquire opens path (creating it if needed), takes a non-blocking
// exclusive flock, and writes the current PID into it. If the lock is
// already held and force is false, it returns an *Error describing the
// existing holder. If force is true, Acquire returns (nil, nil) instead,
// signaling "proceed without a lock" exactly like the original's
// force-override return of Ok(None).
func Acquire(path string, force bool) (*File, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0o644)
	if err != nil {
		return nil, &Error{Path: path}
	}

	if flockErr := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); flockErr != nil {
		_ = unix.Close(fd)

		if flockErr == unix.EWOULDBLOCK {
			existingPID, ok := readPID(path)
			if !ok {
				if force {
					return nil, nil
				}
				return nil, &Error{Path: path}
			}
			if force {
				return nil, nil
			}
			return nil, &Error{Path: path, ExistingPID: existingPID}
		}

		return nil, errors.Wrapf(flockErr, "failed to acquire lock at %q", path)
	}

	pid := os.Getpid()
	if err := unix.Ftruncate(fd, 0); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "failed to truncate lock file %q", path)
	}
	if _, err := unix.Write(fd, []byte(strconv.Itoa(pid)+"\n")); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "failed to write pid to lock file %q", path)
	}

	return &File{path: path, fd: fd}, nil
}

func readPID(path string) (int, bool) {
	content, err := os.ReadFile(path) // #nosec G304 -- operator-controlled lock file path
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// Release removes the pid file and closes the underlying descriptor,
// which also drops the flock.
func (f *File) Release() {
	_ = unix.Close(f.fd)
	_ = os.Remove(f.path)
}

// Path returns the lock file's path.
func (f *File) Path() string {
	return f.path
}
