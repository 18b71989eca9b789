// Package logging sets up the logrus logger shared by all components
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// New returns a logger writing prefixed text lines to out
func New(level logrus.Level, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	logger.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// Level picks a level from the debug and verbose flags, warn if neither
func Level(debug bool, verbose bool) logrus.Level {
	switch {
	case debug:
		return logrus.DebugLevel
	case verbose:
		return logrus.InfoLevel
	default:
		return logrus.WarnLevel
	}
}

// Component returns an entry with the prefix field set, the prefixed
// formatter shows it in brackets
func Component(l logrus.FieldLogger, name string) *logrus.Entry {
	return l.WithField("prefix", name)
}

// Discard is a logger that drops everything, used as default by components
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
