package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Tracing wraps handlers with OpenTelemetry server spans. Requests to
// excluded paths are not traced. Without a configured TracerProvider the
// global no-op tracer is used.
func Tracing(serviceName string, excludedPaths ...string) func(http.Handler) http.Handler {
	excluded := make(map[string]bool, len(excludedPaths))
	for _, p := range excludedPaths {
		excluded[p] = true
	}

	opts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !excluded[r.URL.Path]
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.Path
		}),
	}

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName, opts...)
	}
}
