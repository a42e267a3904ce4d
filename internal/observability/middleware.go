package observability

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InjectLogger stores the provided logger on the request context.
func InjectLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = noopLogger
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs request completion with structured fields and records
// the HTTP request metrics.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := FromContext(ctx).With(
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			logger = logger.With(zap.String("trace_id", sc.TraceID().String()))
		}
		if ip := realIP(r); ip != "" {
			logger = logger.With(zap.String("remote_ip", ip))
		}
		r = r.WithContext(WithLogger(ctx, logger))

		recorder := NewResponseRecorder(w)
		start := time.Now()
		var panicked bool
		defer func() {
			latency := time.Since(start)
			status := recorder.Status()
			if panicked && status < http.StatusInternalServerError {
				status = http.StatusInternalServerError
			}
			route := routePattern(r)
			span := trace.SpanFromContext(r.Context())
			span.SetAttributes(
				attribute.Int("http.response.status_code", status),
				attribute.String("http.route", route),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			ObserveRequest(r.Method, route, status, latency)

			fields := []zap.Field{
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.Int64("bytes", recorder.BytesWritten()),
			}
			switch {
			case panicked || status >= http.StatusInternalServerError:
				logger.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		}()
		defer func() {
			if rec := recover(); rec != nil {
				panicked = true
				panic(rec)
			}
		}()

		next.ServeHTTP(recorder, r)
	})
}

// Recovery captures panics, logs the stack trace and answers with a plain 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				FromContext(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func realIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ResponseRecorder wraps ResponseWriter and captures the status code and body size.
type ResponseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

// NewResponseRecorder wraps w.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	if statusCode < 100 {
		statusCode = http.StatusOK
	}
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush forwards to the underlying writer when supported.
func (rw *ResponseRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *ResponseRecorder) Status() int { return rw.status }

func (rw *ResponseRecorder) BytesWritten() int64 { return rw.bytes }
