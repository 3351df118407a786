// Package logger provides leveled, structured logging for Slate.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

var (
	root hclog.Logger
	mu   sync.RWMutex
)

func init() {
	root = newRoot(os.Getenv("SLATE_LOG_LEVEL"), os.Getenv("SLATE_LOG_FORMAT"))
}

func newRoot(level, format string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "slate",
		Level:      parseLevel(level),
		JSONFormat: strings.EqualFold(format, "json"),
		Output:     os.Stdout,
	})
}

func parseLevel(level string) hclog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return hclog.Debug
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// Configure replaces the root logger. Called from main once configuration is
// loaded, and again on config reload.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(level, format)
}

func get() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Info logs informational messages
func Info(msg string, fields ...Field) {
	get().Info(msg, flatten(fields)...)
}

// Warn logs warning messages
func Warn(msg string, fields ...Field) {
	get().Warn(msg, flatten(fields)...)
}

// Error logs error messages
func Error(msg string, fields ...Field) {
	get().Error(msg, flatten(fields)...)
}

// Debug logs debug messages
func Debug(msg string, fields ...Field) {
	get().Debug(msg, flatten(fields)...)
}

// Named returns a sub-logger for a component, e.g. a module ID.
func Named(name string) hclog.Logger {
	return get().Named(name)
}

func flatten(fields []Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

// Helper functions for common field types

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Err(key string, err error) Field {
	if err == nil {
		return Field{Key: key, Value: nil}
	}
	return Field{Key: key, Value: err.Error()}
}
