// Package cpu locks the calling goroutine to an OS thread and, where the
// platform allows it, pins that thread to one logical CPU.
package cpu

import (
	"errors"
	"runtime"
)

// ErrPinUnsupported is returned when the thread was locked but could not be
// pinned because the platform has no affinity API.
var ErrPinUnsupported = errors.New("cpu: thread pinning not supported on this platform")

// NumCPU returns the number of logical CPUs available.
func NumCPU() int {
	return runtime.NumCPU()
}

// normalize folds any core index into [0, NumCPU).
func normalize(core int) int {
	n := runtime.NumCPU()
	core %= n
	if core < 0 {
		core += n
	}
	return core
}

// LockToCore locks the calling goroutine to its OS thread and pins the thread
// to core (taken modulo NumCPU). The returned release func unlocks the thread
// and must be called from the same goroutine; it is valid even when err is
// non-nil, in which case the thread is locked but not pinned.
func LockToCore(core int) (release func(), pinned int, err error) {
	runtime.LockOSThread()
	release = runtime.UnlockOSThread

	pinned = normalize(core)
	return release, pinned, pinToCore(pinned)
}
