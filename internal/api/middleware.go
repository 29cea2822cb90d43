package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"route-planner-service/internal/platform/obs"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// responseRecorder remembers what was sent to the client for the access log.
type responseRecorder struct {
	http.ResponseWriter
	code     int
	written  int
	upgraded bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.code == 0 {
		rr.code = code
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.code == 0 {
		rr.code = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.written += n
	return n, err
}

// Hijack is required by the WebSocket upgrader.
func (rr *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	rr.code = http.StatusSwitchingProtocols
	rr.upgraded = true
	return hj.Hijack()
}

func (rr *responseRecorder) Unwrap() http.ResponseWriter { return rr.ResponseWriter }

// accessLog writes one line per request once the handler returns.
// Streams are logged when the socket closes.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.code == 0 {
			rec.code = http.StatusOK
		}
		log.Printf("req_id=%s method=%s path=%s status=%d bytes=%d upgraded=%t dur=%dms",
			obs.RequestID(r.Context()), r.Method, r.URL.RequestURI(),
			rec.code, rec.written, rec.upgraded, time.Since(began).Milliseconds())
	})
}

// withRequestID reuses the caller's X-Request-ID or mints one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(obs.WithRequestID(r.Context(), id)))
	})
}
