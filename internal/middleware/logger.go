package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
}

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// RequestLogger logs method, path, status, size and duration of every request.
func RequestLogger(log Log) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			data := &responseData{status: http.StatusOK}
			lw := loggingResponseWriter{
				ResponseWriter: w,
				responseData:   data,
			}
			h.ServeHTTP(&lw, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Int("status", data.status),
				zap.Int("size", data.size),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
