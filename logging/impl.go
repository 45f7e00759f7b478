package logging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

func now() time.Time { return time.Now() }

// Logger is the logging surface used throughout the planner. It intentionally
// omits net-appender, remote-config and deduplication machinery: this module
// is a library with no gRPC server to push log config from, so that
// machinery would be unwired ballast.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// The C-prefixed family only emits below the configured level when ctx was
	// derived from EnableDebugModeWithKey; otherwise they behave like their
	// unprefixed counterparts.
	CDebug(ctx context.Context, args ...interface{})
	CDebugf(ctx context.Context, template string, args ...interface{})
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})
	CInfo(ctx context.Context, args ...interface{})
	CInfof(ctx context.Context, template string, args ...interface{})
	CInfow(ctx context.Context, msg string, keysAndValues ...interface{})
	CWarn(ctx context.Context, args ...interface{})
	CWarnf(ctx context.Context, template string, args ...interface{})
	CWarnw(ctx context.Context, msg string, keysAndValues ...interface{})
	CError(ctx context.Context, args ...interface{})
	CErrorf(ctx context.Context, template string, args ...interface{})
	CErrorw(ctx context.Context, msg string, keysAndValues ...interface{})

	Sublogger(name string) Logger
	WithFields(keysAndValues ...interface{}) Logger
	Level() Level
	SetLevel(Level)
}

type impl struct {
	name   string
	level  *AtomicLevel
	core   *multiCore
	fields []interface{}
}

// NewLogger builds a Logger named name, writing to stdout at INFO level.
func NewLogger(name string) Logger {
	lvl := NewAtomicLevelAt(INFO)
	return newImpl(name, &lvl, []Appender{NewStdoutAppender()}, nil)
}

// NewBlankLogger builds a Logger that discards everything; useful as a
// zero-value default when a caller does not supply one.
func NewBlankLogger(name string) Logger {
	lvl := NewAtomicLevelAt(ERROR + 1)
	return newImpl(name, &lvl, nil, nil)
}

// NewObservedLogger builds a Logger at DEBUG level that appends every
// rendered line to the given appenders; used by tests that assert on output.
func NewObservedLogger(name string, appenders ...Appender) Logger {
	lvl := NewAtomicLevelAt(DEBUG)
	return newImpl(name, &lvl, appenders, nil)
}

func newImpl(name string, level *AtomicLevel, appenders []Appender, fields []interface{}) *impl {
	return &impl{
		name:   name,
		level:  level,
		core:   &multiCore{name: name, level: level, appenders: appenders},
		fields: fields,
	}
}

func (l *impl) Level() Level {
	for _, lvl := range []Level{DEBUG, INFO, WARN, ERROR} {
		if l.level.Enabled(lvl) {
			return lvl
		}
	}
	return ERROR
}

func (l *impl) SetLevel(lvl Level) {
	l.level.Set(lvl)
}

func (l *impl) Sublogger(name string) Logger {
	return &impl{
		name:   l.name + "." + name,
		level:  l.level,
		core:   &multiCore{name: l.name + "." + name, level: l.level, appenders: l.core.appenders, fields: l.core.fields},
		fields: append([]interface{}{}, l.fields...),
	}
}

func (l *impl) WithFields(keysAndValues ...interface{}) Logger {
	merged := append(append([]interface{}{}, l.fields...), keysAndValues...)
	return &impl{name: l.name, level: l.level, core: l.core, fields: merged}
}

func keyedFields(keysAndValues ...interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues); i += 2 {
		var key string
		switch k := keysAndValues[i].(type) {
		case string:
			key = k
		case fmt.Stringer:
			key = k.String()
		default:
			// Non-string, non-Stringer keys are dropped rather than panicking.
			continue
		}
		if i+1 >= len(keysAndValues) {
			fields = append(fields, zapcore.Field{Key: key, Type: zapcore.StringType, String: "unpaired log key"})
			continue
		}
		fields = append(fields, zapcore.Field{Key: key, Type: zapcore.ReflectType, Interface: keysAndValues[i+1]})
	}
	return fields
}

func (l *impl) write(lvl Level, msg string, keysAndValues []interface{}) {
	if !l.level.Enabled(lvl) {
		return
	}
	entry := zapcore.Entry{
		Level:      lvl.zapLevel(),
		Time:       now(),
		LoggerName: l.name,
		Message:    msg,
	}
	all := append(append([]interface{}{}, l.fields...), keysAndValues...)
	if err := l.core.Write(entry, keyedFields(all...)); err != nil {
		// Logging must never panic the planner; best-effort only.
		_ = err
	}
}

func (l *impl) Debug(args ...interface{})  { l.write(DEBUG, fmt.Sprint(args...), nil) }
func (l *impl) Info(args ...interface{})   { l.write(INFO, fmt.Sprint(args...), nil) }
func (l *impl) Warn(args ...interface{})   { l.write(WARN, fmt.Sprint(args...), nil) }
func (l *impl) Error(args ...interface{})  { l.write(ERROR, fmt.Sprint(args...), nil) }

func (l *impl) Debugf(t string, args ...interface{}) { l.write(DEBUG, fmt.Sprintf(t, args...), nil) }
func (l *impl) Infof(t string, args ...interface{})  { l.write(INFO, fmt.Sprintf(t, args...), nil) }
func (l *impl) Warnf(t string, args ...interface{})  { l.write(WARN, fmt.Sprintf(t, args...), nil) }
func (l *impl) Errorf(t string, args ...interface{}) { l.write(ERROR, fmt.Sprintf(t, args...), nil) }

func (l *impl) Debugw(msg string, kv ...interface{}) { l.write(DEBUG, msg, kv) }
func (l *impl) Infow(msg string, kv ...interface{})  { l.write(INFO, msg, kv) }
func (l *impl) Warnw(msg string, kv ...interface{})  { l.write(WARN, msg, kv) }
func (l *impl) Errorw(msg string, kv ...interface{}) { l.write(ERROR, msg, kv) }

func (l *impl) cwrite(ctx context.Context, lvl Level, msg string, kv []interface{}) {
	traceKey, debugging := debugTraceKey(ctx)
	if !debugging {
		l.write(lvl, msg, kv)
		return
	}
	if l.level.Enabled(lvl) {
		l.write(lvl, msg, kv)
		return
	}
	// Not enabled at the logger's configured level, but the context opted in:
	// force it through at the call's own level anyway, tagged with the trace key.
	entry := zapcore.Entry{Level: lvl.zapLevel(), Time: now(), LoggerName: l.name, Message: msg}
	all := append(append([]interface{}{}, l.fields...), kv...)
	all = append([]interface{}{"traceKey", traceKey}, all...)
	_ = l.core.Write(entry, keyedFields(all...))
}

func (l *impl) CDebug(ctx context.Context, args ...interface{}) {
	l.cwrite(ctx, DEBUG, fmt.Sprint(args...), nil)
}

func (l *impl) CDebugf(ctx context.Context, t string, args ...interface{}) {
	l.cwrite(ctx, DEBUG, fmt.Sprintf(t, args...), nil)
}

func (l *impl) CDebugw(ctx context.Context, msg string, kv ...interface{}) {
	l.cwrite(ctx, DEBUG, msg, kv)
}

func (l *impl) CInfo(ctx context.Context, args ...interface{}) {
	l.cwrite(ctx, INFO, fmt.Sprint(args...), nil)
}

func (l *impl) CInfof(ctx context.Context, t string, args ...interface{}) {
	l.cwrite(ctx, INFO, fmt.Sprintf(t, args...), nil)
}

func (l *impl) CInfow(ctx context.Context, msg string, kv ...interface{}) {
	l.cwrite(ctx, INFO, msg, kv)
}

func (l *impl) CWarn(ctx context.Context, args ...interface{}) {
	l.cwrite(ctx, WARN, fmt.Sprint(args...), nil)
}

func (l *impl) CWarnf(ctx context.Context, t string, args ...interface{}) {
	l.cwrite(ctx, WARN, fmt.Sprintf(t, args...), nil)
}

func (l *impl) CWarnw(ctx context.Context, msg string, kv ...interface{}) {
	l.cwrite(ctx, WARN, msg, kv)
}

func (l *impl) CError(ctx context.Context, args ...interface{}) {
	l.cwrite(ctx, ERROR, fmt.Sprint(args...), nil)
}

func (l *impl) CErrorf(ctx context.Context, t string, args ...interface{}) {
	l.cwrite(ctx, ERROR, fmt.Sprintf(t, args...), nil)
}

func (l *impl) CErrorw(ctx context.Context, msg string, kv ...interface{}) {
	l.cwrite(ctx, ERROR, msg, kv)
}
