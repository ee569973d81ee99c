package middleware

import (
	"net/http"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/frahmantamala/attendance-management/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID tags the request logger with a trace id. An incoming X-Trace-ID
// is kept, otherwise chi's request id or a fresh uuid is used.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = chiMiddleware.GetReqID(r.Context())
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
