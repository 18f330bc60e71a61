package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// level is shared by every handler installed through SetupLogger so that
// SetLevel on the slog provider takes effect without reinstalling handlers.
var level = new(slog.LevelVar)

// SetupLogger installs a JSON slog handler on stdout as the slog default and
// points the package provider at it.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stdout, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	lvl, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	level.Set(lvl)

	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
	SetProvider(NewSlogProvider(nil))
	return nil
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(lvl string) (slog.Level, error) {
	switch strings.ToLower(lvl) {
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", lvl)
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
