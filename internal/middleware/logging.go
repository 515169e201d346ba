package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plank-dev/plank/internal/types"
)

const TraceHeader = "X-Trace-Id"

// TraceMiddleware reuses the caller's trace id or mints one.
func TraceMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		traceID := ctx.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx.Set(types.ContextTraceKey, traceID)
		ctx.Header(TraceHeader, traceID)
		ctx.Next()
	}
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		attrs := []any{
			"method", ctx.Request.Method,
			"path", ctx.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"trace_id", ctx.GetString(types.ContextTraceKey),
		}

		if len(ctx.Errors) > 0 {
			attrs = append(attrs, "error", ctx.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("request", attrs...)
		case status >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
