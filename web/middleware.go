package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the request ID stored by the middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a well-formed incoming X-Request-ID or generates a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			log.RequestIDKey, RequestIDFrom(r.Context()),
			log.MethodKey, r.Method,
			log.PathKey, r.URL.Path,
			log.StatusKey, status,
			log.RemoteAddrKey, r.RemoteAddr,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			s.logger.Warn("request failed", fields...)
		default:
			s.logger.Info("request", fields...)
		}
	})
}

// recoverer converts a handler panic into a 500 and reports it.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := errors.SafeExecute("web."+r.URL.Path, func() error {
			next.ServeHTTP(w, r)
			return nil
		})
		if err == nil {
			return
		}
		s.logger.Error("handler panicked", err,
			log.RequestIDKey, RequestIDFrom(r.Context()),
			log.PathKey, r.URL.Path,
			log.ErrorCodeKey, log.ErrorInternal)
		s.reporter.Report(r.Context(), err, map[string]string{
			"request_id": RequestIDFrom(r.Context()),
			"path":       r.URL.Path,
		})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	})
}

// rateLimit rejects requests beyond the configured rate with deny. A nil
// limiter lets everything through.
func (s *Server) rateLimit(next http.Handler, deny http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.Warn("rate limited",
				log.RequestIDKey, RequestIDFrom(r.Context()),
				log.PathKey, r.URL.Path,
				log.ErrorCodeKey, log.ErrorRateLimited)
			w.Header().Set("Retry-After", "1")
			deny(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
