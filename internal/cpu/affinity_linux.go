//go:build linux

package cpu

import "golang.org/x/sys/unix"

// pinToCore restricts the current thread to cpuID. The caller must hold
// runtime.LockOSThread.
func pinToCore(cpuID int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	// pid 0 targets the calling thread.
	return unix.SchedSetaffinity(0, &mask)
}
