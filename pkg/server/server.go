package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/config"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/llm"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

type Server struct {
	Config   *config.Config
	Router   *mux.Router
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	Limiter  *middleware.RateLimiter

	ConversationsStore store.ConversationsStore
	HealthStore        store.HealthStore
	Completer          llm.Completer

	accessLog *io.PipeWriter
	srv       *http.Server
}

// NewServer builds the router and the middleware chain. Stores and the
// completer are attached by the caller once the database is connected.
func NewServer(cfg *config.Config, logger *logrus.Logger, registry *prometheus.Registry) *Server {
	router := mux.NewRouter()

	metrics := middleware.NewMetrics(registry)
	router.Use(metrics.Middleware)

	accessLog := logger.WriterLevel(logrus.InfoLevel)

	var handler http.Handler = router
	handler = middleware.NewJSONBodyParser(cfg.MaxBodyBytes).Middleware(handler)
	handler = middleware.CORS(handler)
	handler = handlers.LoggingHandler(accessLog, handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(logger))(handler)

	srv := &http.Server{
		Handler:           handler,
		Addr:              cfg.Address(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Upstream completions can take a while
		WriteTimeout: llm.DefaultTimeout + 15*time.Second,
	}

	return &Server{
		Config:    cfg,
		Router:    router,
		Logger:    logger,
		Registry:  registry,
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		accessLog: accessLog,
		srv:       srv,
	}
}

// Handler returns the full middleware chain wrapping the router
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	return s.srv.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	_ = s.accessLog.Close()
	return err
}
