package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// DebugLogger forwards Debugf calls to Logf when enabled.
type DebugLogger struct {
	Enabled bool
}

// Debug returns a DebugLogger; verbose command-line flags switch it on.
func Debug(enabled bool) DebugLogger {
	return DebugLogger{Enabled: enabled}
}

// Debugf logs with a [debug] prefix when the logger is enabled.
func (d DebugLogger) Debugf(format string, args ...interface{}) {
	if !d.Enabled {
		return
	}
	Logf("[debug] "+format, args...)
}
