// Package logger is a small structured JSON logger. Every line is one
// JSON object with a fixed envelope (ts, level, msg) plus the typed
// fields attached at the call site or inherited via With.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelFatal is only used as a threshold: NewNop logs at it so that
	// nothing ever passes the filter.
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "unknown"
}

// ParseLevel maps a config string to a Level. Unknown values fall back
// to info so a typo in LOG_LEVEL never silences the service.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Field is one key/value pair on a log line.
type Field struct {
	Key   string
	Value any
}

// String builds a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Any builds a field from an arbitrary value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err builds the conventional "error" field. A nil error becomes the
// string "<nil>" rather than being dropped, so the line still shows
// that an error slot was logged.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain field helpers. Using these instead of ad-hoc String calls keeps
// the key names uniform across the codebase, which is what makes the
// lines greppable.
// ─────────────────────────────────────────────────────────────────────────────

// AccountID tags a line with the account it concerns.
func AccountID(id string) Field { return String("account_id", id) }

// Email tags a line with an account email.
func Email(email string) Field { return String("email", email) }

// MissionID tags a line with a mission.
func MissionID(id string) Field { return String("mission_id", id) }

// GameID tags a line with a game.
func GameID(id string) Field { return String("game_id", id) }

// XPAmount tags a line with an experience delta.
func XPAmount(xp int) Field { return Int("xp", xp) }

// RiskScore tags a line with a risk score value.
func RiskScore(score int) Field { return Int("risk_score", score) }

// Component names the subsystem emitting the line.
func Component(name string) Field { return String("component", name) }

// Latency records an operation duration in human-readable form.
func Latency(d time.Duration) Field { return String("latency", d.String()) }

// Options configures a Logger.
type Options struct {
	// Output receives the JSON lines. Defaults to stdout.
	Output io.Writer

	// Level is the minimum severity that gets written.
	Level Level
}

// Logger writes structured JSON lines. The zero value is not usable;
// construct with New or NewNop. Loggers are immutable: With returns a
// child and never mutates the parent, so a Logger may be shared freely
// across goroutines.
type Logger struct {
	mu    *sync.Mutex
	out   io.Writer
	level Level
	bound []Field
}

// New creates a Logger from opts.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		mu:    &sync.Mutex{},
		out:   out,
		level: opts.Level,
	}
}

// Default returns an info-level logger to stdout.
func Default() *Logger {
	return New(Options{Level: LevelInfo})
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return New(Options{Output: io.Discard, Level: LevelFatal})
}

// With returns a child logger whose lines always carry the given
// fields in addition to any passed at the call site.
func (l *Logger) With(fields ...Field) *Logger {
	if len(fields) == 0 {
		return l
	}
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &Logger{
		mu:    l.mu,
		out:   l.out,
		level: l.level,
		bound: bound,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.write(LevelInfo, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.write(LevelWarn, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, 3+len(l.bound)+len(fields))
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	// Call-site fields land after bound ones so they win on key clash.
	for _, f := range l.bound {
		entry[f.Key] = f.Value
	}
	for _, f := range fields {
		entry[f.Key] = f.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		// An unmarshalable field value should not eat the message.
		line = []byte(fmt.Sprintf(`{"ts":%q,"level":%q,"msg":%q,"logger_error":%q}`,
			entry["ts"], level.String(), msg, err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(line, '\n'))
}
