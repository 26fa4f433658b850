package ports

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type requestInstruments struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

var instruments = mustNewRequestInstruments(otel.Meter("japa/ports"))

func mustNewRequestInstruments(meter metric.Meter) requestInstruments {
	count, err := meter.Int64Counter(
		"ports/request_count",
		metric.WithDescription("Requests handled per port"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create request count metric: %w", err))
	}

	duration, err := meter.Float64Histogram(
		"ports/request_duration_seconds",
		metric.WithDescription("Time spent handling a request"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create request duration metric: %w", err))
	}

	return requestInstruments{count: count, duration: duration}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// "2xx", "4xx" and so on
func statusClass(statusCode int) string {
	return fmt.Sprintf("%dxx", statusCode/100)
}

// Record count and latency per port. Paths carry phone numbers so they are never recorded.
func buildMetricsMiddleware(port string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next(recorder, r)

			attributes := metric.WithAttributes(
				attribute.String("port", port),
				attribute.String("method", r.Method),
				attribute.Int("status_code", recorder.statusCode),
				attribute.String("status_class", statusClass(recorder.statusCode)),
			)

			ctx := r.Context()
			instruments.count.Add(ctx, 1, attributes)
			instruments.duration.Record(ctx, time.Since(start).Seconds(), attributes)
		}
	}
}
