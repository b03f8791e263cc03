// Package logging provides a small structured-logging wrapper over
// go-kit/log, shared by every package in this module so that component
// names and key/value pairs look the same everywhere.
package logging

import (
	"os"
	"sync"

	kitlog "github.com/go-kit/log"
)

// Logger is a structured, leveled logger for a single named component.
type Logger struct {
	module string
	base   kitlog.Logger
	kvs    []interface{}
}

var (
	rootOnce sync.Once
	root     kitlog.Logger
)

func getRoot() kitlog.Logger {
	rootOnce.Do(func() {
		root = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	})
	return root
}

// GetLogger returns a Logger for the named module (e.g. "scheduler/serial").
func GetLogger(module string) *Logger {
	return &Logger{
		module: module,
		base:   getRoot(),
	}
}

// With returns a derived Logger that always includes the given key/value
// pairs, mirroring the teacher's logger.With("runtime_id", ...) idiom.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	kvs := make([]interface{}, 0, len(l.kvs)+len(keyvals))
	kvs = append(kvs, l.kvs...)
	kvs = append(kvs, keyvals...)
	return &Logger{module: l.module, base: l.base, kvs: kvs}
}

func (l *Logger) log(level string, msg string, keyvals ...interface{}) {
	kvs := make([]interface{}, 0, len(l.kvs)+len(keyvals)+6)
	kvs = append(kvs, "module", l.module, "level", level, "msg", msg)
	kvs = append(kvs, l.kvs...)
	kvs = append(kvs, keyvals...)
	_ = l.base.Log(kvs...)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) { l.log("debug", msg, keyvals...) }

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) { l.log("info", msg, keyvals...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) { l.log("warn", msg, keyvals...) }

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) { l.log("error", msg, keyvals...) }
