package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
)

const requestIDHeader = "X-Request-ID"

const exposedHeaders = "X-API-Version, X-Request-ID"

var traceContext = propagation.TraceContext{}

// statusRecorder remembers what the handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// requestLogger logs one line per request and makes sure every response
// carries a request id. An inbound traceparent header joins the log lines
// to the caller's trace.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := traceContext.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r.WithContext(ctx))

		stats := model.RequestStats{
			RequestID:    requestID,
			Method:       r.Method,
			Path:         r.URL.Path,
			Status:       rec.status,
			Latency:      time.Since(start),
			ResponseSize: rec.size,
		}
		if stats.Status == 0 {
			stats.Status = http.StatusOK
		}

		lgr.Logger.InfoContext(ctx,
			"request",
			slog.String("method", stats.Method),
			slog.String("path", stats.Path),
			slog.Int("status", stats.Status),
			slog.Float64("latency_ms", metrics.Round2(float64(stats.Latency)/float64(time.Millisecond))),
			slog.Int("response_size_bytes", stats.ResponseSize),
			slog.String("request_id", stats.RequestID),
		)
	})
}

func apiVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", Version)
		next.ServeHTTP(w, r)
	})
}

// cors allows any origin. Credentials are allowed, so the origin is echoed
// back rather than answered with a wildcard.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if origin := r.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", exposedHeaders)
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				h.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
