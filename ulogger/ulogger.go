// Package ulogger provides the logging abstraction used by every archive component.
package ulogger

import "strings"

// Logger is implemented by the zerolog, gocore and test loggers. Components tag their lines
// with their own prefix, for example [ArchiveHTTP].
type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

// Logger types accepted by WithLoggerType and the logger_type setting.
const (
	TypeZerolog = "zerolog"
	TypeGoCore  = "gocore"
	TypeNone    = "none"
)

// New creates a logger for service. The type comes from WithLoggerType, anything unknown
// falls back to zerolog.
func New(service string, options ...Option) Logger {
	switch strings.ToLower(applyOptions(options).loggerType) {
	case TypeGoCore:
		return NewGoCoreLogger(service, options...)
	case TypeNone:
		return TestLogger{}
	default:
		return NewZeroLogger(service, options...)
	}
}

func applyOptions(options []Option) *Options {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return opts
}
