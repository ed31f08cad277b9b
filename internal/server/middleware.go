package server

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront-chat/internal/logging"
)

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.New().String()
		rr := &responseRecorder{w: w}
		log := s.log.WithFields(logrus.Fields{
			"http.req.path":   r.URL.Path,
			"http.req.method": r.Method,
			"http.req.id":     reqID,
		})
		w.Header().Set("X-Request-ID", reqID)

		defer func() {
			log.WithFields(logrus.Fields{
				"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
				"http.resp.status":  rr.status,
				"http.resp.bytes":   rr.b,
			}).Debug("request complete")
		}()

		ctx := logging.WithLogger(r.Context(), log)
		next.ServeHTTP(rr, r.WithContext(ctx))
	})
}

// rateLimit rejects clients above their request budget before any handler runs.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)
		d := s.limiter.Check(addr)
		if !d.Allowed {
			logging.FromContext(r.Context(), s.log).WithField("client", addr).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:      "Too many requests",
				Message:    "Demasiadas solicitudes. Por favor espera un momento antes de volver a intentar.",
				RetryAfter: d.RetryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr strips the port from RemoteAddr. With ProxyHeaders in front,
// RemoteAddr already holds the forwarded address without a port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
