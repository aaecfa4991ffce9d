package handlers

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// statusWriter records what a handler sent: status, body size and whether
// the connection was taken over by a websocket.
type statusWriter struct {
	http.ResponseWriter
	status   int
	wrote    bool
	bytes    int
	upgraded bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wrote {
		w.status = status
		w.wrote = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Hijack hands the connection to the websocket upgrader.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err != nil {
		return nil, nil, err
	}
	w.status = http.StatusSwitchingProtocols
	w.wrote = true
	w.upgraded = true
	return conn, rw, nil
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// requestLevel logs server faults as errors and everything else as info.
func requestLevel(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogRequest is structured logging middleware using slog. Websocket upgrades
// are logged once, when the upgrade completes.
func LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		msg := "request"
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
		}
		if sw.upgraded {
			msg = "websocket opened"
		} else {
			attrs = append(attrs, slog.Int("bytes", sw.bytes))
		}
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			attrs = append(attrs, slog.String("session", shortID(cookie.Value)))
		}

		slog.LogAttrs(r.Context(), requestLevel(sw.status), msg, attrs...)
	})
}
