package log

import (
	"sync"
)

// The package-level provider backs GetLogger and GetLoggerWithName, the entry
// points estimator constructors use. It is created lazily on first use and can
// be swapped with SetProvider, which tests do to capture output.
var (
	globalMu       sync.RWMutex
	globalProvider LoggerProvider
)

// SetProvider installs the package-level logger provider. Passing nil restores
// the lazy zerolog default.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// GetLogger returns the default logger from the package-level provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name from the
// package-level provider. Estimators call this once in their constructor:
//
//	logger := log.GetLoggerWithName("ensemble").With(
//	    log.ModelNameKey, "VotingClassifier",
//	)
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level on the package-level provider.
func SetLevel(level Level) {
	provider().SetLevel(level)
}

func provider() LoggerProvider {
	globalMu.RLock()
	p := globalProvider
	globalMu.RUnlock()
	if p != nil {
		return p
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalProvider == nil {
		globalProvider = NewZerologProvider(LevelInfo)
	}
	return globalProvider
}
