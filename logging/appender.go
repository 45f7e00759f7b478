package logging

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
)

// Appender receives a fully-formed log entry and is responsible for rendering
// and delivering it somewhere (a file, stdout, an in-memory buffer for tests).
// The signature mirrors zapcore.Core.Write so an Appender slots directly
// behind our own Core shim without re-deriving zap's encoding logic.
type Appender interface {
	Write(entry zapcore.Entry, fields []zapcore.Field) error
	Sync() error
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

type writerAppender struct {
	w   zapcore.WriteSyncer
	enc zapcore.Encoder
}

// NewWriterAppender builds an Appender that renders entries with the standard
// console encoding and writes them to w.
func NewWriterAppender(w io.Writer) Appender {
	return &writerAppender{
		w:   zapcore.AddSync(w),
		enc: zapcore.NewConsoleEncoder(consoleEncoderConfig()),
	}
}

// NewStdoutAppender is the default appender used by NewLogger.
func NewStdoutAppender() Appender {
	return NewWriterAppender(os.Stdout)
}

func (a *writerAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := a.enc.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	_, err = a.w.Write(buf.Bytes())
	return err
}

func (a *writerAppender) Sync() error {
	return a.w.Sync()
}

// multiCore fans a single log record out to every configured Appender and
// gates the whole thing on a shared AtomicLevel, so one impl can write to
// stdout and a trace file simultaneously; every appender sees the same
// verbosity, as the level is not per-appender.
type multiCore struct {
	name      string
	level     *AtomicLevel
	appenders []Appender
	fields    []zapcore.Field
}

func (c *multiCore) Enabled(lvl zapcore.Level) bool {
	return c.level.v.Enabled(lvl)
}

func (c *multiCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &multiCore{name: c.name, level: c.level, appenders: c.appenders, fields: merged}
}

func (c *multiCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *multiCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.LoggerName = c.name
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	var firstErr error
	for _, a := range c.appenders {
		if err := a.Write(entry, all); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *multiCore) Sync() error {
	var firstErr error
	for _, a := range c.appenders {
		if err := a.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
