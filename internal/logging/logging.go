// Package logging configures the daemon's structured logger and is the
// single log entry point for the rest of the core.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields names structured fields attached to one log line.
type Fields = logrus.Fields

// Init configures the package-level logrus logger: JSON output suitable for
// a long-running daemon, level from the IOTEDGE_LOG level name (default
// info).
func Init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level := os.Getenv("IOTEDGE_LOG")
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

// Log writes an info-level log line, the free function the rest of the core
// calls for routine progress messages.
func Log(args ...any) {
	logrus.Infoln(args...)
}

// Logf writes a formatted info-level log line.
func Logf(format string, args ...any) {
	logrus.Infof(format, args...)
}

// Warn writes a warning-level log line.
func Warn(args ...any) {
	logrus.Warnln(args...)
}

// WithFields starts a log line carrying structured fields, for call sites
// (the request middleware, the metric exporter) whose output is consumed by
// log tooling rather than operators.
func WithFields(fields Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

// WithError starts a log line annotated with err.
func WithError(err error) *logrus.Entry {
	return logrus.WithError(err)
}
