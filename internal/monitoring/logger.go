package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logf is the package-level diagnostic logger. It writes at info level
// through the default logger but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = NewLogger(os.Stderr, log.InfoLevel).Infof

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// NewLogger returns a timestamped levelled logger writing to w.
func NewLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "bliphunter",
	})
}

// ParseLevel maps a -log-level flag value to a logger level.
func ParseLevel(s string) (log.Level, error) {
	return log.ParseLevel(s)
}
