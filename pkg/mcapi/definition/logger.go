package definition

import (
	"fmt"
	"io"
	"log"
	"os"

	promlog "github.com/prometheus/common/log"
)

const (
	calldepth = 2
	info      = "INFO"
	warn      = "WARN"
	errorl    = "ERROR"
	debug     = "DEBUG"
	fatal     = "FATAL"
)

// Logger is the logging boundary every core subsystem depends on,
// modeled directly on go-mcast's pkg/mcast/types.Logger contract.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	ToggleDebug(value bool) bool
}

// Use the given log level as prefix.
func level(prefix, message string) string {
	return fmt.Sprintf("[%s]: %s", prefix, message)
}

// DefaultLogger is the logger installed when a caller does not supply
// its own implementation to Initialize.
type DefaultLogger struct {
	*log.Logger
	debug bool
}

// NewDefaultLogger builds a DefaultLogger writing to w, prefixed with
// name (e.g. the node identity once known).
func NewDefaultLogger(w io.Writer, name string) *DefaultLogger {
	if w == nil {
		w = os.Stderr
	}
	return &DefaultLogger{
		Logger: log.New(w, name, log.LstdFlags),
		debug:  false,
	}
}

func (l *DefaultLogger) Info(v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Infof(format string, v ...interface{}) {
	l.Output(calldepth, level(info, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Warn(v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Warnf(format string, v ...interface{}) {
	l.Output(calldepth, level(warn, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Error(v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprint(v...)))
}

func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.Output(calldepth, level(errorl, fmt.Sprintf(format, v...)))
}

func (l *DefaultLogger) Debug(v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debug, fmt.Sprint(v...)))
	}
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.Output(calldepth, level(debug, fmt.Sprintf(format, v...)))
	}
}

func (l *DefaultLogger) ToggleDebug(value bool) bool {
	l.debug = value
	return l.debug
}

func (l *DefaultLogger) Fatal(v ...interface{}) {
	l.Output(calldepth, level(fatal, fmt.Sprint(v...)))
	os.Exit(1)
}

func (l *DefaultLogger) Fatalf(format string, v ...interface{}) {
	l.Output(calldepth, level(fatal, fmt.Sprintf(format, v...)))
	os.Exit(1)
}

func (l *DefaultLogger) Panic(v ...interface{}) {
	l.Logger.Panic(v...)
}

func (l *DefaultLogger) Panicf(format string, v ...interface{}) {
	l.Logger.Panicf(format, v...)
}

// FallbackErrorf logs through github.com/prometheus/common/log's
// package-level functions, for code paths that run before any
// node-scoped Logger exists (e.g. transport syscall wrappers
// exercised directly by tests that never call Initialize). go-mcast's
// own core.ReliableTransport falls back to the same package-level
// functions for its own unexpected-error paths; this mirrors that.
func FallbackErrorf(format string, v ...interface{}) {
	promlog.Errorf(format, v...)
}
