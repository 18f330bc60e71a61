package log

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// ZerologProvider hands out loggers backed by zerolog.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider over base.
//
//	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
//	log.SetProvider(log.NewZerologProvider(zl))
func NewZerologProvider(base zerolog.Logger) *ZerologProvider {
	return &ZerologProvider{base: base}
}

// GetLogger implements LoggerProvider.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base}
}

// GetLoggerWithName implements LoggerProvider.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.base.With().Str(ComponentKey, name).Logger()}
}

// SetLevel implements LoggerProvider. It affects loggers requested afterwards.
func (p *ZerologProvider) SetLevel(l Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(l))
}

// EnableZerologWarnings routes errors.Warn through zl. Warnings that implement
// zerolog.LogObjectMarshaler are embedded as structured fields.
func EnableZerologWarnings(zl zerolog.Logger) {
	mlerrors.SetZerologWarnFunc(func(w error) {
		ev := zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(m)
		}
		ev.Msg(w.Error())
	})
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, fields ...any) { withFields(z.zl.Debug(), fields).Msg(msg) }
func (z *zerologLogger) Info(msg string, fields ...any)  { withFields(z.zl.Info(), fields).Msg(msg) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { withFields(z.zl.Warn(), fields).Msg(msg) }
func (z *zerologLogger) Error(msg string, fields ...any) { withFields(z.zl.Error(), fields).Msg(msg) }

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ctx = ctx.AnErr(ErrAttrKey, err)
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, l Level) bool {
	zl := toZerologLevel(l)
	return zl >= z.zl.GetLevel() && zl >= zerolog.GlobalLevel()
}

// withFields appends key/value pairs to ev. A leading error is attached under
// ErrAttrKey together with its stack trace and error code.
func withFields(ev *zerolog.Event, fields []any) *zerolog.Event {
	if ev == nil {
		return nil
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.AnErr(ErrAttrKey, err)
			if st := extractStacktrace(err); st != "" {
				ev = ev.Str(StacktraceAttrKey, st)
			}
			if code := errorCode(err); code != "" {
				ev = ev.Str(ErrorCodeKey, code)
			}
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		ev = ev.Interface(fmt.Sprint(fields[i]), fields[i+1])
	}
	return ev
}

func toZerologLevel(l Level) zerolog.Level {
	switch {
	case l <= LevelDebug:
		return zerolog.DebugLevel
	case l <= LevelInfo:
		return zerolog.InfoLevel
	case l <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
