package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Compression middleware with gzip support. The gzip stream starts with the
// first body byte, so HEAD, 204 and 304 responses go out untouched.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if client accepts gzip
		if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		gw := &gzipResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer gw.finish()

		next.ServeHTTP(gw, r)
	})
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, 5)
		return gz
	},
}

// gzipResponseWriter holds back the status line until it knows whether the
// handler writes a body.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	statusCode  int
	wroteHeader bool
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader || w.gz != nil {
		return
	}
	w.statusCode = statusCode
	w.wroteHeader = true
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if w.gz == nil {
		if !bodyAllowed(w.statusCode) {
			return 0, http.ErrBodyNotAllowed
		}
		h := w.ResponseWriter.Header()
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")

		w.gz = gzipWriterPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
		w.ResponseWriter.WriteHeader(w.statusCode)
	}
	return w.gz.Write(b)
}

func (w *gzipResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish flushes the gzip footer, or sends the bare status when no body was
// written.
func (w *gzipResponseWriter) finish() {
	if w.gz == nil {
		if w.wroteHeader {
			w.ResponseWriter.WriteHeader(w.statusCode)
		}
		return
	}
	_ = w.gz.Close()
	gzipWriterPool.Put(w.gz)
}

func bodyAllowed(statusCode int) bool {
	return statusCode != http.StatusNoContent && statusCode != http.StatusNotModified &&
		(statusCode < 100 || statusCode > 199)
}

// NoStore marks every response as uncacheable. Analysis pages and answers
// carry patient-reported data.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
