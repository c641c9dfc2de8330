// Package api serves the betting board over HTTP for the browser UI.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/phenomenon0/betpool/pkg/dapp/board"
)

// Server holds the HTTP dependencies.
type Server struct {
	board    *board.Board
	ws       http.HandlerFunc
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	origins  []string
}

// Option configures the server.
type Option func(*Server)

// WithWebSocket mounts the streaming hub at /ws.
func WithWebSocket(h http.HandlerFunc) Option {
	return func(s *Server) {
		s.ws = h
	}
}

// WithMetrics exposes g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCORSOrigins sets the origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates an API server over b.
func NewServer(b *board.Board, opts ...Option) *Server {
	s := &Server{
		board:   b,
		logger:  zap.NewNop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.ws != nil {
		r.Get("/ws", s.ws)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/account", s.handleAccount)

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", s.handleListMatches)
			r.Post("/", s.handleCreateMatch)
			r.Post("/{matchID}/finish", s.handleFinishMatch)
			r.Get("/{matchID}/posts", s.handleListPosts)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", s.handleCreatePost)
			r.Get("/mine", s.handleMyBets)
			r.Get("/hosted", s.handleHosted)
			r.Post("/{postID}/stake", s.handleContribute)
			r.Post("/{postID}/bets", s.handlePlaceBet)
			r.Post("/{postID}/claim", s.handleClaim)
			r.Get("/{postID}/stakes/{address}", s.handleUserStake)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"})
}
