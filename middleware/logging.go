package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/broady/mxapi/server"
)

// LoggingInterceptor creates an interceptor that writes one slog record per
// endpoint call. Successful calls log at Info, calls failing with a 4xx
// Matrix error at Warn and everything else at Error. A nil logger uses
// slog.Default.
func LoggingInterceptor(logger *slog.Logger) server.UnaryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req any, info *server.CallInfo, handler server.HandlerFunc) (any, error) {
		start := time.Now()
		res, err := handler(ctx, req)

		attrs := []slog.Attr{
			slog.String("endpoint", info.Endpoint),
			slog.String("method", info.Method),
			slog.String("path", info.Path),
			slog.String("stability", info.Stability.String()),
			slog.Duration("duration", time.Since(start)),
		}
		if info.RateLimited {
			attrs = append(attrs, slog.Bool("rate_limited", true))
		}

		if err == nil {
			logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			return res, nil
		}

		mErr := server.DefaultErrorTransformer(err)
		status := mErr.HTTPStatus()
		attrs = append(attrs,
			slog.String("errcode", string(mErr.Code)),
			slog.Int("status", status),
			slog.Any("error", err))
		if d, ok := mErr.RetryAfter(); ok {
			attrs = append(attrs, slog.Duration("retry_after", d))
		}

		level := slog.LevelError
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.LogAttrs(ctx, level, "request failed", attrs...)
		return res, err
	}
}
