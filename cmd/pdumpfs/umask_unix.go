//go:build !windows

package main

import "golang.org/x/sys/unix"

// forceRestrictiveUmask sets the process umask to 0077 for the duration of
// a run, so that any mode bits the source carries are never widened by the
// creating process's default umask, and returns a function that restores
// the previous umask.
func forceRestrictiveUmask() func() {
	previous := unix.Umask(0077)
	return func() { unix.Umask(previous) }
}
