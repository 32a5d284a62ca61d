package ulogger

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Logf(format string, args ...any)
}

type tHelper = interface {
	Helper()
}

// ErrorTestLogger swallows debug, info and warn output and fails the test on error or fatal,
// unless SkipCancelOnFail is set, in which case those are only logged.
type ErrorTestLogger struct {
	t                TestingT
	skipCancelOnFail atomic.Bool
	cancelFn         func()
	shutdown         atomic.Bool
}

func NewErrorTestLogger(t TestingT, cancelFn ...func()) *ErrorTestLogger {
	l := &ErrorTestLogger{t: t}

	if len(cancelFn) > 0 {
		l.cancelFn = cancelFn[0]
	}

	return l
}

func (l *ErrorTestLogger) SetCancelFn(cancelFn func()) {
	l.cancelFn = cancelFn
}

func (l *ErrorTestLogger) SkipCancelOnFail(skip bool) {
	if h, ok := l.t.(tHelper); ok {
		h.Helper()
	}

	l.skipCancelOnFail.Store(skip)
}

// Shutdown stops the logger from touching testing.T once the test is cleaning up.
func (l *ErrorTestLogger) Shutdown() {
	l.shutdown.Store(true)
}

func (l *ErrorTestLogger) LogLevel() int {
	return 0
}

func (l *ErrorTestLogger) SetLogLevel(_ string) {}

func (l *ErrorTestLogger) New(_ string, _ ...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Duplicate(_ ...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Debugf(_ string, _ ...interface{}) {}

func (l *ErrorTestLogger) Infof(_ string, _ ...interface{}) {}

func (l *ErrorTestLogger) Warnf(_ string, _ ...interface{}) {}

func (l *ErrorTestLogger) Errorf(format string, args ...interface{}) {
	l.fail("ERR_LEVEL", format, args...)
}

func (l *ErrorTestLogger) Fatalf(format string, args ...interface{}) {
	l.fail("FATAL_LEVEL", format, args...)
}

func (l *ErrorTestLogger) fail(level, format string, args ...interface{}) {
	if l.shutdown.Load() {
		return
	}

	if h, ok := l.t.(tHelper); ok {
		h.Helper()
	}

	_, file, line, _ := runtime.Caller(3)

	l.t.Logf(fmt.Sprintf("%s:%d: %s %s", file, line, level, format), args...)

	if l.skipCancelOnFail.Load() {
		return
	}

	if l.cancelFn != nil {
		l.cancelFn()
	}

	l.t.Errorf("unexpected %s log", level)
}
