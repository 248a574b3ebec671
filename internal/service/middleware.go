package service

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/rdivossen/iotedge/internal/logging"
)

const shutdownGrace = 10 * time.Second

var (
	meter           = otel.Meter("github.com/rdivossen/iotedge/internal/service")
	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
)

func init() {
	var err error
	requestDuration, err = meter.Float64Histogram(
		"iotedge.api.request.duration",
		metric.WithDescription("Local API request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logging.WithError(err).Warn("failed to create request duration instrument")
	}
	requestCount, err = meter.Int64Counter(
		"iotedge.api.request.count",
		metric.WithDescription("Local API requests served"),
	)
	if err != nil {
		logging.WithError(err).Warn("failed to create request count instrument")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware wraps handler with a logging and metrics layer, recording
// method, path, status, and latency for every request. It is the outermost
// wrapper around the per-endpoint router, per listener.
func LoggingMiddleware(listenerName string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		handler.ServeHTTP(rec, req)

		elapsed := time.Since(start)
		logging.WithFields(logging.Fields{
			"listener":   listenerName,
			"request_id": requestID,
			"method":     req.Method,
			"path":       req.URL.Path,
			"status":     rec.status,
			"latency_ms": elapsed.Milliseconds(),
		}).Info("served request")

		attrs := metric.WithAttributes()
		if requestDuration != nil {
			requestDuration.Record(req.Context(), float64(elapsed.Milliseconds()), attrs)
		}
		if requestCount != nil {
			requestCount.Add(req.Context(), 1, attrs)
		}
	})
}
