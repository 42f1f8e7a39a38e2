package startup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/config"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/console"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/db"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/llm"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
	mongostore "github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store/mongo"
)

// ShutdownTimeout bounds graceful shutdown once the run context is cancelled
const ShutdownTimeout = 10 * time.Second

// ErrDatabaseConnectionFailed is returned when the initial database
// connection is rejected or does not complete within the configured timeout.
var ErrDatabaseConnectionFailed = errors.New("database connection failed")

//go:generate go run github.com/dmarkham/enumer -type State -trimprefix State -transform lower -output state.gen.go

// State is a step of the startup sequence
type State int

const (
	StateValidating State = iota
	StateConnecting
	StateServing
	StateAborted
)

// Backend is the connected storage layer
type Backend interface {
	Conversations() store.ConversationsStore
	Health() store.HealthStore
	Close(ctx context.Context) error
}

// ConnectFunc opens the storage layer. The context carries the connection deadline.
type ConnectFunc func(ctx context.Context, cfg *config.Config) (Backend, error)

// ListenFunc binds the network listener
type ListenFunc func(network, address string) (net.Listener, error)

// ConnectMongo is the default ConnectFunc
func ConnectMongo(ctx context.Context, cfg *config.Config) (Backend, error) {
	return mongostore.Open(ctx, mongoConfig(cfg))
}

// mongoConfig gives the driver a server-selection timeout slightly below the
// sequencer's bound so the driver's own error (refused, auth) is reported
// instead of a bare deadline.
func mongoConfig(cfg *config.Config) db.Config {
	return db.Config{
		URI:      cfg.MongoDBURI,
		Database: cfg.Database,
		Timeout:  driverTimeout(cfg.DBConnectTimeout),
	}
}

func driverTimeout(bound time.Duration) time.Duration {
	if bound <= 0 {
		bound = config.DefaultDBConnectTimeout
	}
	margin := bound / 10
	if margin > time.Second {
		margin = time.Second
	}
	return bound - margin
}

// Sequencer validates configuration, connects to the database and serves
// HTTP, in that order. Validating → Connecting → Serving, with Aborted
// reachable from the first two. Run never exits the process.
type Sequencer struct {
	Config  *config.Config
	Console *console.Console
	Logger  *logrus.Logger

	// Optional collaborators; defaults are used when nil
	Connect   ConnectFunc
	Listen    ListenFunc
	Completer llm.Completer
	Registry  *prometheus.Registry

	mu    sync.Mutex
	state State
	addr  net.Addr
}

// State returns the current state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr returns the bound listener address once serving, or nil
func (s *Sequencer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Sequencer) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAborted {
		return
	}
	s.state = state
}

func (s *Sequencer) abort(err error) error {
	s.setState(StateAborted)
	s.Logger.WithError(err).WithField("state", StateAborted).Debug("startup aborted")
	return err
}

// Run executes the startup sequence and then serves until ctx is cancelled.
// It returns nil after a graceful shutdown and a non-nil error when the
// sequence aborts.
func (s *Sequencer) Run(ctx context.Context) error {
	s.setState(StateValidating)
	cfg := s.Config

	if cfg.CredentialMissing() {
		s.warnCredentialMissing()
	}

	if err := cfg.Validate(); err != nil {
		s.Console.Error("❌ Error: No se cargaron las variables de entorno correctamente (%v). Verifica el archivo %s.", err, cfg.OverlayFilePath())
		return s.abort(err)
	}

	registry := s.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	srv := server.NewServer(cfg, s.Logger, registry)

	s.setState(StateConnecting)
	backend, err := s.connect(ctx)
	if err != nil {
		s.Console.Error("❌ Error de conexión a MongoDB: %v", err)
		return s.abort(fmt.Errorf("%w: %w", ErrDatabaseConnectionFailed, err))
	}
	s.Console.Success("✅ MongoDB conectado")

	srv.ConversationsStore = backend.Conversations()
	srv.HealthStore = backend.Health()
	srv.Completer = s.Completer
	if srv.Completer == nil {
		srv.Completer = llm.NewOpenAIClient(llm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}
	endpoints.RegisterAll(srv)

	listen := s.Listen
	if listen == nil {
		listen = net.Listen
	}
	ln, err := listen("tcp", cfg.Address())
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		_ = backend.Close(closeCtx)
		s.Console.Error("❌ No se pudo escuchar en %s: %v", cfg.Address(), err)
		return s.abort(fmt.Errorf("listen on %s: %w", cfg.Address(), err))
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.setState(StateServing)
	s.Logger.Infof("Running server at http://%s...", ln.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		s.Logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := backend.Close(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("closing database: %w", err))
	}
	return runErr
}

// connect bounds the connection attempt by the configured timeout. The
// listener is not bound until this returns.
func (s *Sequencer) connect(ctx context.Context) (Backend, error) {
	connect := s.Connect
	if connect == nil {
		connect = ConnectMongo
	}

	timeout := s.Config.DBConnectTimeout
	if timeout <= 0 {
		timeout = config.DefaultDBConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		backend Backend
		err     error
	}
	done := make(chan result, 1)
	go func() {
		backend, err := connect(connectCtx, s.Config)
		done <- result{backend, err}
	}()

	select {
	case r := <-done:
		return r.backend, r.err
	case <-connectCtx.Done():
		select {
		case r := <-done:
			return r.backend, r.err
		default:
		}
		// A late success must not leak its connection
		go func() {
			if r := <-done; r.err == nil && r.backend != nil {
				_ = r.backend.Close(context.Background())
			}
		}()
		return nil, fmt.Errorf("no connection after %s: %w", timeout, connectCtx.Err())
	}
}

func (s *Sequencer) warnCredentialMissing() {
	s.Console.Warn("⚠️  ADVERTENCIA: No se encontró la variable OPENAI_API_KEY")
	s.Console.Info("Para configurar la API key de OpenAI:")
	s.Console.Plain("1. Crea un archivo %s junto al servidor", config.OverlayFileName)
	s.Console.Plain("2. Añade la línea: OPENAI_API_KEY=tu-api-key-de-openai")
	s.Console.Plain("3. Reinicia el servidor")
	s.Console.Plain("")

	if !s.Config.OverlayFileExists() {
		s.Console.Error("No se encontró el archivo %s (%s)", config.OverlayFileName, s.Config.OverlayFilePath())
	}
}
