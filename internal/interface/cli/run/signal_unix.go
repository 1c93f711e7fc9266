//go:build !windows
// +build !windows

package run

import (
	"os"
	"syscall"
)

// sessionSignals lists the signals a run session reacts to on Unix
func sessionSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,    // Ctrl+C: end the session, keep the execution
		syscall.SIGTERM, // kill
		syscall.SIGTSTP, // Ctrl+Z: move the execution to the background
	}
}

// isBackgroundSignal reports whether sig sends the execution to the background
func isBackgroundSignal(sig os.Signal) bool {
	return sig == syscall.SIGTSTP
}
