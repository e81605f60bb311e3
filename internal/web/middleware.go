package web

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/movitransit/movi/internal/log"
)

// pageWriter captures status and size for the console request log.
type pageWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *pageWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *pageWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *pageWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *pageWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// recoveryMiddleware converts page handler panics into a plain 500. If
// the handler already wrote headers all it can do is log.
func recoveryMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pw, ok := w.(*pageWriter)
			if !ok {
				pw = &pageWriter{ResponseWriter: w}
			}

			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("page handler panic",
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					if pw.status == 0 {
						http.Error(pw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}
			}()

			next.ServeHTTP(pw, r)
		})
	}
}

// loggingMiddleware logs one line per console request. API traffic does
// not pass through here; the API chain logs it with a request ID.
func loggingMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pw, ok := w.(*pageWriter)
			if !ok {
				pw = &pageWriter{ResponseWriter: w}
			}

			start := time.Now()
			next.ServeHTTP(pw, r)

			logger.Debug("console request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", pw.status,
				"bytes", pw.bytes,
				"duration", time.Since(start),
			)
		})
	}
}
