// Package logging constructs the process-wide structured logger. An
// optional file at /var/log/systemctl.log is appended to if it already
// exists; otherwise logs go to standard error. --verbose (repeatable)
// raises the logger's level.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

const logFilePath = "/var/log/systemctl.log"

// New builds a logrus.Logger per the rules above. verbosity 0 is Info, 1 is
// Debug, 2+ is Trace.
func New(verbosity int) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if info, err := os.Stat(logFilePath); err == nil && !info.IsDir() {
		if f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			log.SetOutput(f)
		} else {
			log.SetOutput(os.Stderr)
		}
	} else {
		log.SetOutput(os.Stderr)
	}

	switch {
	case verbosity >= 2:
		log.SetLevel(logrus.TraceLevel)
	case verbosity == 1:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
