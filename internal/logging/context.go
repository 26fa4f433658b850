package logging

import (
	"context"
	"log/slog"

	"github.com/Amund211/japa/internal/strutils"
)

type loggerContextKey struct{}

// Get the logger for this context, or slog's default logger tagged as a fallback
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default().With(slog.String("logger", "fallback"))
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// Attach attributes to every subsequent log line from this context
func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return AddToContext(ctx, FromContext(ctx).With(args...))
}

// Tag log lines with the devotee being acted on. Only the masked phone is logged.
func AddDevoteeToContext(ctx context.Context, phone string) context.Context {
	return AddMetaToContext(ctx, slog.String("devotee", strutils.MaskPhone(phone)))
}
