package skill

import "sync/atomic"

// debugLoggingEnabled guards per-cycle and per-shot debug logs.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables per-cycle debug logging.
// Call during initialization, same as the log level.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if per-cycle debug logging is enabled.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
