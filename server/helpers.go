package server

import "time"

// waitUntil blocks until d is closed or timeout elapses. A timeout of zero
// or less waits forever.
func waitUntil(d <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-d
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-d:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}
