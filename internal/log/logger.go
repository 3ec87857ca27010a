// Package log is the leveled key/value logger used by the gflow CLI and the
// optimizer.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// silentLevel disables every message; used by Nop.
	silentLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a config value such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Logger is the logging surface the optimizer and the commands depend on.
// Args are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// DefaultLogger writes one line per message, as text or as a JSON object.
type DefaultLogger struct {
	mu         sync.Mutex
	level      Level
	jsonOutput bool
	out        io.Writer
}

// New creates a logger. Output defaults to stderr so that stdout stays free
// for command results.
func New(cfg LoggerConfig) *DefaultLogger {
	l := &DefaultLogger{level: cfg.Level, jsonOutput: cfg.JSONOutput, out: cfg.Output}
	if l.out == nil {
		l.out = os.Stderr
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *DefaultLogger {
	return New(LoggerConfig{Level: silentLevel, Output: io.Discard})
}

// pairs walks key/value args. A leading value without a key is reported
// under the empty key.
func pairs(args []interface{}, f func(key string, value interface{})) {
	if len(args)%2 != 0 {
		f("", args[0])
		args = args[1:]
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			f(key, args[i+1])
		}
	}
}

func (l *DefaultLogger) log(level Level, msg string, args []interface{}) {
	if level < l.level {
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05")

	var line string
	if l.jsonOutput {
		entry := map[string]interface{}{"timestamp": now, "level": level.String(), "message": msg}
		pairs(args, func(key string, v interface{}) {
			if key == "" {
				return
			}
			switch v := v.(type) {
			case error:
				entry[key] = v.Error()
			case fmt.Stringer:
				entry[key] = v.String()
			default:
				entry[key] = v
			}
		})
		data, _ := json.Marshal(entry)
		line = string(data)
	} else {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] %s: %s", now, level, msg)
		pairs(args, func(key string, v interface{}) {
			if key == "" {
				fmt.Fprintf(&sb, " %v", v)
				return
			}
			fmt.Fprintf(&sb, " %s=%v", key, v)
		})
		line = sb.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}

func (l *DefaultLogger) Debug(msg string, args ...interface{}) { l.log(DebugLevel, msg, args) }
func (l *DefaultLogger) Info(msg string, args ...interface{})  { l.log(InfoLevel, msg, args) }
func (l *DefaultLogger) Warn(msg string, args ...interface{})  { l.log(WarnLevel, msg, args) }
func (l *DefaultLogger) Error(msg string, args ...interface{}) { l.log(ErrorLevel, msg, args) }
