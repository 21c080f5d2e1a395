// Package logger implements a small central logging facility in the style
// used throughout the emulator: a ring buffer of tagged entries that can be
// dumped wholesale, tailed, or echoed live to an io.Writer as they arrive.
//
// Log entries are produced by the emulator core (reset, executor, symbol
// intercepts), the audio sink, the debug server, the stats server and the
// CLI, and consumed by the operator-facing CLI.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Permission gates whether a log entry is actually recorded. Subsystems that
// want to rate-limit or silence noisy log sources (such as the "unpredictable
// encoding executed" warning, which the architecture explicitly allows to
// recur) can pass their own Permission implementation instead of Allow.
type Permission interface {
	AllowLogging() bool
}

// allowPermission always permits logging.
type allowPermission struct{}

func (allowPermission) AllowLogging() bool { return true }

// Allow is the default Permission: always log.
var Allow Permission = allowPermission{}

// entry is a single recorded log line.
type entry struct {
	tag    string
	detail string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s\n", e.tag, e.detail)
}

// Logger is a fixed-capacity ring buffer of entries plus an optional echo
// destination for live tailing.
type Logger struct {
	mu      sync.Mutex
	entries []entry
	cap     int

	echo      io.Writer
	echoFatal bool
}

// NewLogger creates a Logger that retains at most capacity entries, dropping
// the oldest once full.
func NewLogger(capacity int) *Logger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Logger{cap: capacity}
}

func formatDetail(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log appends a tagged entry if permission allows it.
func (l *Logger) Log(permission Permission, tag string, detail interface{}) {
	if permission != nil && !permission.AllowLogging() {
		return
	}
	l.append(tag, formatDetail(detail))
}

// Logf is the printf-style variant of Log.
func (l *Logger) Logf(permission Permission, tag string, format string, args ...interface{}) {
	if permission != nil && !permission.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(format, args...))
}

func (l *Logger) append(tag, detail string) {
	l.mu.Lock()
	e := entry{tag: tag, detail: detail}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	echo := l.echo
	l.mu.Unlock()

	if echo != nil {
		io.WriteString(echo, e.String())
	}
}

// Clear empties the buffer without affecting the echo destination.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Write dumps every retained entry, oldest first.
func (l *Logger) Write(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.String())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Tail writes the most recent n entries, oldest first. Requesting more
// entries than exist, or zero, are both handled gracefully.
func (l *Logger) Tail(w io.Writer, n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	var b strings.Builder
	for _, e := range l.entries[len(l.entries)-n:] {
		b.WriteString(e.String())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SetEcho routes every future entry to w as it is logged, in addition to
// retaining it in the ring buffer. Passing a nil writer disables echoing.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = w
}

// central is the package-level logger used by the convenience functions
// below, sized generously enough to survive a long debug session.
var central = NewLogger(5000)

// Log appends to the central logger.
func Log(permission Permission, tag string, detail interface{}) {
	central.Log(permission, tag, detail)
}

// Logf appends to the central logger using a format string.
func Logf(permission Permission, tag string, format string, args ...interface{}) {
	central.Logf(permission, tag, format, args...)
}

// Clear empties the central logger.
func Clear() {
	central.Clear()
}

// Write dumps the central logger's contents.
func Write(w io.Writer) error {
	return central.Write(w)
}

// Tail writes the most recent n entries from the central logger.
func Tail(w io.Writer, n int) error {
	return central.Tail(w, n)
}

// SetEcho routes the central logger's future entries to w.
func SetEcho(w io.Writer) {
	central.SetEcho(w)
}
