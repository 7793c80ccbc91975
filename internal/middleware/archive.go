package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/drstein77/shopflow/internal/compress"
)

// MaxImportSize caps the uploaded body and the CSV unpacked from an archive.
const MaxImportSize int64 = 32 << 20

type archiveKey struct{}

// ArchiveTypeMiddleware resolves the archiveType query parameter (zip by
// default) and, when the request body is sent with a matching
// Content-Encoding, replaces it with the CSV file found inside the archive.
// Bodies are limited to MaxImportSize.
func ArchiveTypeMiddleware(next http.Handler) http.Handler {
	return LimitedArchiveType(MaxImportSize)(next)
}

// LimitedArchiveType is ArchiveTypeMiddleware with a custom body limit in
// bytes. Reading past the limit fails with *http.MaxBytesError.
func LimitedArchiveType(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			archiveType := compress.ParseType(r.URL.Query().Get("archiveType"))
			r = r.WithContext(context.WithValue(r.Context(), archiveKey{}, archiveType))
			r.Body = http.MaxBytesReader(w, r.Body, limit)

			// Check if the client sent compressed data
			if r.Header.Get("Content-Encoding") == archiveType {
				cr, err := compress.NewReader(archiveType, r.Body)
				if err != nil {
					status := http.StatusBadRequest
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						status = http.StatusRequestEntityTooLarge
					}
					http.Error(w, "Failed to read archive: "+err.Error(), status)
					return
				}
				// the unpacked file gets the same cap as the upload
				body := http.MaxBytesReader(w, cr, limit)
				defer body.Close()
				r.Body = body
				r.Header.Del("Content-Encoding")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ArchiveType returns the archive format chosen by ArchiveTypeMiddleware.
func ArchiveType(ctx context.Context) string {
	if v, ok := ctx.Value(archiveKey{}).(string); ok {
		return v
	}
	return compress.Zip
}
