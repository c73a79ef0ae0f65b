package server

import (
	"log/slog"
	"net/http"

	"dink-feed/config"
	"dink-feed/feed"
	"dink-feed/logging"
	"dink-feed/metrics"
	"dink-feed/publish"
	"dink-feed/rules"
	"dink-feed/session"
	"dink-feed/upload"
)

// Deps are the collaborators the server hands work to. Uploader may be nil,
// in which case screenshots are validated and then dropped.
type Deps struct {
	Sessions  session.Store
	Publisher publish.Publisher
	Uploader  upload.Uploader
	Rules     *rules.Rules
	Feed      *feed.Hub
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Server struct {
	router *http.ServeMux
	config *config.Config

	jwtSecret []byte
	sessions  session.Store
	publisher publish.Publisher
	uploader  upload.Uploader
	rules     *rules.Rules
	feed      *feed.Hub
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		config:    cfg,
		jwtSecret: cfg.JWTSecret,
		sessions:  deps.Sessions,
		publisher: deps.Publisher,
		uploader:  deps.Uploader,
		rules:     deps.Rules,
		feed:      deps.Feed,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
	if s.rules == nil {
		s.rules = rules.Default(cfg.CastChannel)
	}
	if s.feed == nil {
		s.feed = feed.NewHub(0)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", logging.ComponentServer)

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/i/", s.corsMiddleware(s.handleWebhook))
	s.router.HandleFunc("/api/signer/save", s.corsMiddleware(s.handleSaveSigner))
	s.router.HandleFunc("/feed", s.corsMiddleware(s.handleFeed))
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.AllowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
