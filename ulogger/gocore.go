package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger logs through gocore. gocore keeps one logger per service name, so the level
// is fixed by whichever logger for that name was created first.
type GoCoreLogger struct {
	*gocore.Logger
	service   string
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = "archive"
	}

	opts := applyOptions(options)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)),
		service:   service,
		skipFrame: opts.skip,
	}
}

// New returns the gocore logger of service at this logger's level.
func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := applyOptions(options)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, g.Logger.GetLogLevel()),
		service:   service,
		skipFrame: opts.skip,
	}
}

// Duplicate shares the underlying gocore logger. Only the skip frame can differ.
func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	opts := applyOptions(options)

	skip := g.skipFrame
	if opts.skip != 0 {
		skip = opts.skip
	}

	return &GoCoreLogger{
		Logger:    g.Logger,
		service:   g.service,
		skipFrame: skip,
	}
}

func (g *GoCoreLogger) SetLogLevel(level string) {
	if gocore.NewLogLevelFromString(level) != g.Logger.GetLogLevel() {
		g.Logger.Warnf("[%s] log level %s ignored, gocore loggers keep the level they were created with", g.service, level)
	}
}
