package log

import (
	"context"
	"log/slog"
	"sync"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewSlogProvider(nil)
)

// SetProvider replaces the package-level provider used by GetLogger and
// GetLoggerWithName. Loggers obtained earlier keep their old backend.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns a logger from the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with ComponentKey=name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SlogProvider hands out loggers backed by log/slog.
type SlogProvider struct {
	base *slog.Logger
}

// NewSlogProvider creates a provider over base. A nil base means slog.Default()
// at the time each logger is requested.
func NewSlogProvider(base *slog.Logger) *SlogProvider {
	return &SlogProvider{base: base}
}

func (p *SlogProvider) logger() *slog.Logger {
	if p.base != nil {
		return p.base
	}
	return slog.Default()
}

// GetLogger implements LoggerProvider.
func (p *SlogProvider) GetLogger() Logger {
	return &slogLogger{l: p.logger()}
}

// GetLoggerWithName implements LoggerProvider.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{l: p.logger().With(ComponentKey, name)}
}

// SetLevel implements LoggerProvider. Only handlers installed by SetupLogger
// observe the shared level.
func (p *SlogProvider) SetLevel(l Level) {
	level.Set(slog.Level(l))
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, slogArgs(fields)...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, slogArgs(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, slogArgs(fields)...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, slogArgs(fields)...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(slogArgs(fields)...)}
}

func (s *slogLogger) Enabled(ctx context.Context, l Level) bool {
	return s.l.Enabled(ctx, slog.Level(l))
}

// slogArgs turns a leading error into an ErrAttr so ErrFmtHandler sees it.
func slogArgs(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		args := make([]any, 0, len(fields))
		args = append(args, ErrAttr(err))
		return append(args, fields[1:]...)
	}
	return fields
}
