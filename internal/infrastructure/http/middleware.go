package httptransport

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mintcondition/cardshop/internal/metrics"
	"github.com/mintcondition/cardshop/internal/pkg/logging"
)

// Observability wires per-request concerns in one middleware:
// X-Request-ID generation and echo, a request-scoped logger stored in the
// context, and the request duration histogram labelled with the chi route
// template to keep cardinality low.
func Observability(base *zap.Logger, met *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			reqLogger := base.With(
				zap.String("request_id", rid),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			ctx := logging.ContextWithLogger(r.Context(), reqLogger)

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))

			route := chi.RouteContext(ctx).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			met.RequestDuration.WithLabelValues(
				r.Method, route, strconv.Itoa(lrw.status),
			).Observe(time.Since(start).Seconds())

			reqLogger.Info("http_request_done",
				zap.Int("status", lrw.status),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

// RequireAdmin gates the order-management surface. It stands in for the
// shop's real auth middleware, which lives outside this service.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, errors.New("admin token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
