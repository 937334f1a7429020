package philox

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// debugEnabled controls whether the default logger writes debug events,
// via the PHILOX_DEBUG env var.
var debugEnabled = os.Getenv("PHILOX_DEBUG") == "1"

// defaultLogger is used by engines created without Config.Logger.
var (
	defaultMu     sync.RWMutex
	defaultLogger = newDefaultLogger()
)

func newDefaultLogger() zerolog.Logger {
	if !debugEnabled {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.TimeFormat = "15:04:05.000"
	})).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// SetLogger replaces the package default logger. It affects engines
// created afterwards. It is safe to call concurrently with New.
func SetLogger(l zerolog.Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

func loggerOrDefault(l *zerolog.Logger) zerolog.Logger {
	if l != nil {
		return *l
	}
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
