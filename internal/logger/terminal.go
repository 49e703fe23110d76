package logger

import "os"

// isTerminal reports whether f is attached to a terminal. Character
// device detection via Stat works on every supported platform and
// avoids per-OS ioctl code; pipes and regular files both report false.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
