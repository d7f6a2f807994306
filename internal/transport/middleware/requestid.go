package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/discharge-registry/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

type traceKey struct{}

// RequestID reuses the caller's X-Trace-ID or mints one, and tags the
// request logger with it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), traceKey{}, traceID)
		ctx = logger.With(ctx, "trace_id", traceID)

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
