package logging

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Level is a log severity, ordered from most to least verbose.
type Level int8

const (
	// DEBUG is the most verbose level; used for diagnosing planner internals
	// (edge resolutions, adjacency refreshes) that are noisy in normal operation.
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String renders the level the way the console appender expects it.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// zapLevel maps to the underlying zapcore encoder level.
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelFromString parses a level, accepting "warning" as a synonym for "warn".
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return 0, errors.Errorf("unknown log level %q", s)
	}
}

// MarshalJSON implements json.Marshaler so Level can round-trip through config structs.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := LevelFromString(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// AtomicLevel is a level that can be read/written concurrently without locking,
// so a running planner's verbosity can be changed mid-search.
type AtomicLevel struct {
	v zapcore.AtomicLevel
}

// NewAtomicLevelAt constructs an AtomicLevel pinned at the given level.
func NewAtomicLevelAt(l Level) AtomicLevel {
	return AtomicLevel{v: zapcore.NewAtomicLevelAt(l.zapLevel())}
}

// Enabled reports whether a log at lvl should be emitted.
func (a AtomicLevel) Enabled(lvl Level) bool {
	return a.v.Enabled(lvl.zapLevel())
}

// Set changes the level in place.
func (a *AtomicLevel) Set(l Level) {
	a.v.SetLevel(l.zapLevel())
}
