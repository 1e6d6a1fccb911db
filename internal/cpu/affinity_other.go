//go:build !linux && !windows

package cpu

func pinToCore(int) error {
	return ErrPinUnsupported
}
