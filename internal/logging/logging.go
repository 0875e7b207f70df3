package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Debug controls whether debug logs are printed.
var Debug bool

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// ParseLevel maps debug|info|warn|error to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup installs a text logger writing to w. debug forces the debug level.
func Setup(w io.Writer, level string, debug bool) *slog.Logger {
	Debug = debug
	lvl := ParseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	logger.Store(l)
	slog.SetDefault(l)
	return l
}

// Logger returns the process logger.
func Logger() *slog.Logger { return logger.Load() }

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		Logger().Debug(fmt.Sprintf(format, v...))
	}
}
