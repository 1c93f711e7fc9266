//go:build windows
// +build windows

package run

import (
	"os"
	"syscall"
)

// sessionSignals lists the signals a run session reacts to on Windows,
// which has no SIGTSTP
func sessionSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,
		syscall.SIGTERM,
	}
}

func isBackgroundSignal(sig os.Signal) bool {
	return false
}
