// Package monitoring carries the diagnostic log streams shared by the
// spikeview packages. The default stream is always on; the debug stream
// gates per-bake detail behind SPIKEVIEW_DEBUG or an explicit SetDebug.
package monitoring

import (
	"log"
	"os"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// debugEnabled mirrors the SPIKEVIEW_DEBUG environment toggle, resolved once
// at startup. SetDebug overrides it at runtime.
var debugEnabled = os.Getenv("SPIKEVIEW_DEBUG") != ""

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug forces the debug stream on or off regardless of environment.
func SetDebug(on bool) { debugEnabled = on }

// DebugEnabled reports whether Debugf currently forwards to the logger.
func DebugEnabled() bool { return debugEnabled }

// Debugf logs through Logf when the debug stream is enabled. Hot paths use
// it for per-bake detail that would drown the default stream.
func Debugf(format string, v ...interface{}) {
	if debugEnabled {
		Logf(format, v...)
	}
}
