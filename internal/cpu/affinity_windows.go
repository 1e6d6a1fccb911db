//go:build windows

package cpu

import "syscall"

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// pinToCore restricts the current thread to cpuID. The caller must hold
// runtime.LockOSThread.
func pinToCore(cpuID int) error {
	handle, _, _ := getCurrentThread.Call()

	// Bit N selects CPU N.
	prev, _, err := setThreadAffinityMask.Call(handle, uintptr(1)<<uint(cpuID))
	if prev == 0 {
		return err
	}
	return nil
}
