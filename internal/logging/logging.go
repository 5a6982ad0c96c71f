package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

// Hook is called for every log entry, allowing a secondary log sink
// (e.g. OTLP log export) without this package importing it.
type Hook func(level Level, msg string, attrs map[string]interface{})

// Entry is a single structured log line.
type Entry struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Message   string                 `json:"msg"`
	Service   string                 `json:"service,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes JSON structured log entries.
type Logger struct {
	mu      sync.Mutex
	output  io.Writer
	service string
	hook    Hook
}

var defaultLogger = &Logger{output: os.Stdout}

// SetOutput sets the output writer for the default logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	defaultLogger.output = w
}

// SetService sets the service name attached to every entry.
// Called once at startup.
func SetService(name string) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.service = name
}

// SetHook registers a hook invoked for every entry.
func SetHook(hook Hook) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.hook = hook
}

func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    fields,
	}

	l.mu.Lock()
	entry.Service = l.service
	hook := l.hook
	data, _ := json.Marshal(entry)
	_, _ = l.output.Write(data)
	_, _ = l.output.Write([]byte("\n"))
	l.mu.Unlock()

	// Hook runs outside the lock so a slow sink cannot block logging.
	if hook != nil {
		hook(level, msg, fields)
	}
}

// Info logs an info level message.
func Info(msg string, fields ...map[string]interface{}) {
	defaultLogger.log(LevelInfo, msg, first(fields))
}

// Warn logs a warning level message.
func Warn(msg string, fields ...map[string]interface{}) {
	defaultLogger.log(LevelWarn, msg, first(fields))
}

// Error logs an error level message.
func Error(msg string, fields ...map[string]interface{}) {
	defaultLogger.log(LevelError, msg, first(fields))
}

// Fatal logs a fatal level message and exits.
func Fatal(msg string, fields ...map[string]interface{}) {
	defaultLogger.log(LevelFatal, msg, first(fields))
	os.Exit(1)
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// F builds a fields map from alternating key/value pairs.
func F(keyvals ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			fields[key] = keyvals[i+1]
		}
	}
	return fields
}
