// Package logger provides logging implementations for UserDeck
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/userdeck/userdeck/pkg/interfaces"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// ConsoleLogger writes leveled, field-annotated log lines to a writer.
type ConsoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  string
	fields map[string]interface{}
	exit   func(int)
}

// Debug logs debug level messages
func (l *ConsoleLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.write("DEBUG", msg, nil, fields...)
}

// Info logs info level messages
func (l *ConsoleLogger) Info(msg string, fields ...map[string]interface{}) {
	l.write("INFO", msg, nil, fields...)
}

// Warn logs warning level messages
func (l *ConsoleLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.write("WARN", msg, nil, fields...)
}

// Error logs error level messages
func (l *ConsoleLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.write("ERROR", msg, err, fields...)
}

// Fatal logs fatal level messages and exits
func (l *ConsoleLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.write("FATAL", msg, err, fields...)
	l.exit(1)
}

// WithFields returns a logger that annotates every line with the given fields
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleLogger{out: l.out, level: l.minLevel(), fields: merged, exit: l.exit}
}

func (l *ConsoleLogger) write(level, msg string, err error, fields ...map[string]interface{}) {
	if !l.enabled(level) {
		return
	}

	merged := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, merged[k])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	log.New(l.out, "", log.LstdFlags).Println(b.String())
}

func (l *ConsoleLogger) enabled(level string) bool {
	min, ok := levelRank[strings.ToLower(l.minLevel())]
	if !ok {
		min = levelRank["info"]
	}
	rank, ok := levelRank[strings.ToLower(level)]
	if !ok {
		// ERROR and FATAL share a rank
		rank = levelRank["error"]
	}
	return rank >= min
}

// minLevel reads the threshold under the lock so SetLevel can run while
// other goroutines are logging.
func (l *ConsoleLogger) minLevel() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel changes the minimum level at runtime. Used by the config watcher.
func (l *ConsoleLogger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// NewConsoleLogger creates a new console logger
func NewConsoleLogger(level string) interfaces.Logger {
	return &ConsoleLogger{out: os.Stderr, level: level, exit: os.Exit}
}

// NewWriterLogger creates a logger writing to the given writer
func NewWriterLogger(out io.Writer, level string) interfaces.Logger {
	return &ConsoleLogger{out: out, level: level, exit: os.Exit}
}

// NewTestLogger creates a logger for testing
func NewTestLogger() interfaces.Logger {
	return &ConsoleLogger{out: io.Discard, level: "debug", exit: func(int) {}}
}

// NewLogger creates a new logger with default settings
func NewLogger() interfaces.Logger {
	return NewConsoleLogger("info")
}
