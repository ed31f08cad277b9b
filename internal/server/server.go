// Package server exposes the chat gateway over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"storefront-chat/internal/gateway"
	"storefront-chat/internal/ratelimit"
	"storefront-chat/internal/storage"
)

type Chat interface {
	Reply(ctx context.Context, req gateway.Request) (gateway.Reply, error)
	Reset(sessionID string)
}

type Limiter interface {
	Check(key string) ratelimit.Decision
}

type Options struct {
	Addr           string
	APIPrefix      string
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy   bool
	WriteTimeout time.Duration
}

type Server struct {
	opts     Options
	chat     Chat
	limiter  Limiter
	recorder storage.Recorder // optional, backs the stats endpoint
	log      logrus.FieldLogger
	server   *http.Server
	now      func() time.Time
}

func New(opts Options, chat Chat, limiter Limiter, recorder storage.Recorder, log logrus.FieldLogger) *Server {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 45 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		opts:     opts,
		chat:     chat,
		limiter:  limiter,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// Handler builds the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// The limiter sits in front of API route matching so unknown paths and
	// wrong methods under the prefix spend budget too.
	p := strings.TrimRight(s.opts.APIPrefix, "/")
	api := mux.NewRouter()
	api.HandleFunc(p+"/chat/message", s.handleMessage).Methods(http.MethodPost)
	api.HandleFunc(p+"/chat/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc(p+"/stats/daily", s.handleDailyStats).Methods(http.MethodGet)
	r.PathPrefix(p + "/").Handler(s.rateLimit(api))

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(s.opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowCredentials(),
	)(h)
	h = s.logRequests(h)
	if s.opts.TrustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Infof("🌐 chat API listening on %s (prefix %s)", s.opts.Addr, s.opts.APIPrefix)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
