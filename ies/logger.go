package ies

import (
	"log"
	"os"
)

// Logger is the minimal leveled logging seam used across this module,
// following the teacher's plain fmt/log texture rather than pulling in a
// structured logging library (see DESIGN.md).
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// stdLogger is the default Logger, backed by the standard log package.
type stdLogger struct {
	debug bool
	l     *log.Logger
}

// NewStdLogger returns a Logger writing to os.Stderr. debug enables
// Debugf output; it is always off by default (matching the teacher's
// reliance on ad-hoc fmt.Println calls rather than verbose tracing).
func NewStdLogger(debug bool) Logger {
	return &stdLogger{debug: debug, l: log.New(os.Stderr, "ies: ", log.LstdFlags)}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	if s.debug {
		s.l.Printf(format, args...)
	}
}

func (s *stdLogger) Infof(format string, args ...interface{}) {
	s.l.Printf(format, args...)
}

// noopLogger discards everything; New installs it as a Tree's default so
// callers aren't forced to configure logging to use the package.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
