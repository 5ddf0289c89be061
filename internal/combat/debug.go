package combat

import "sync/atomic"

// debugLoggingEnabled guards per-hit debug logs on the damage path.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables per-hit debug logging.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if per-hit debug logging is enabled.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
