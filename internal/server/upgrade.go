package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
)

type upgradeWriterKey struct{}

// upgradeWriter keeps the response writer hijackable for protocol upgrades.
// The framework's writer proxy refuses Hijack once the handshake status has
// been written, so upgrade handlers must bypass it; after a hijack this
// writer swallows the late header write from the framework's completion path.
type upgradeWriter struct {
	http.ResponseWriter
	hijacked bool
}

func (w *upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("connection does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err == nil {
		w.hijacked = true
	}
	return conn, rw, err
}

func (w *upgradeWriter) WriteHeader(statusCode int) {
	if w.hijacked {
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *upgradeWriter) Write(b []byte) (int, error) {
	if w.hijacked {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *upgradeWriter) Flush() {
	if w.hijacked {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withUpgradeWriter wraps the HTTP entrypoint so upgrade handlers can reach
// a hijackable writer through the request context. Ordinary requests flow
// through untouched.
func withUpgradeWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uw := &upgradeWriter{ResponseWriter: w}
		next.ServeHTTP(uw, r.WithContext(context.WithValue(r.Context(), upgradeWriterKey{}, uw)))
	})
}

func upgradeResponseWriter(r *http.Request, fallback http.ResponseWriter) http.ResponseWriter {
	if w, ok := r.Context().Value(upgradeWriterKey{}).(http.ResponseWriter); ok {
		return w
	}
	return fallback
}
