package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// ErrFmtHandler is a slog handler that expands errors from cockroachdb/errors.
// For the first attribute under ErrAttrKey it adds the recorded stack trace and,
// when the error carries one of the library sentinels, a machine-readable code.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps a slog handler with ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var (
		stacktrace string
		code       string
	)
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			if err, ok := attr.Value.Any().(error); ok {
				stacktrace = extractStacktrace(err)
				code = errorCode(err)
			}
			return false
		}
		return true
	})
	if stacktrace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, stacktrace))
	}
	if code != "" {
		r.AddAttrs(slog.String(ErrorCodeKey, code))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorCode maps library sentinels to the ErrorCodeKey values.
func errorCode(err error) string {
	switch {
	case mlerrors.Is(err, mlerrors.ErrModelNotTrained):
		return ErrorNotFitted
	case mlerrors.Is(err, mlerrors.ErrInvalidTrainingData):
		return ErrorInvalidTrainingData
	case mlerrors.Is(err, mlerrors.ErrInvalidTestData):
		return ErrorInvalidTestData
	case mlerrors.Is(err, mlerrors.ErrInfeasibleConstraints):
		return ErrorInfeasible
	case mlerrors.Is(err, mlerrors.ErrSolverFailed):
		return ErrorSolverFailed
	default:
		return ""
	}
}
