package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/muesli/termenv"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/config"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/console"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/logging"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/startup"
)

// TestContext holds the resources shared by the integration tests
type TestContext struct {
	Container  *tcmongodb.MongoDBContainer
	MongoURI   string
	OpenAI     *httptest.Server
	HTTPClient *http.Client

	completions atomic.Int32
}

// NewTestContext starts a MongoDB container and a fake OpenAI endpoint
func NewTestContext(ctx context.Context) (*TestContext, error) {
	container, err := tcmongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	tc := &TestContext{
		Container:  container,
		MongoURI:   uri,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	tc.OpenAI = httptest.NewServer(http.HandlerFunc(tc.handleCompletion))
	return tc, nil
}

// Close releases the container and the fake OpenAI endpoint
func (tc *TestContext) Close() {
	tc.OpenAI.Close()
	_ = testcontainers.TerminateContainer(tc.Container)
}

// Completions reports how many chat completions the fake endpoint served
func (tc *TestContext) Completions() int {
	return int(tc.completions.Load())
}

func (tc *TestContext) handleCompletion(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n := tc.completions.Add(1)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     fmt.Sprintf("chatcmpl-%d", n),
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]interface{}{{
			"index": 0,
			"message": map[string]string{
				"role":    "assistant",
				"content": fmt.Sprintf("respuesta %d (%d mensajes)", n, len(req.Messages)),
			},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
	})
}

// ServerInstance is a sequencer running in-process on a loopback port
type ServerInstance struct {
	Sequencer *startup.Sequencer
	URL       string
	cancel    context.CancelFunc
	done      chan error
}

// Env returns the environment for a server backed by tc with the given database
func (tc *TestContext) Env(database string) map[string]string {
	return map[string]string{
		config.EnvPort:            "6000",
		config.EnvMongoDBURI:      tc.MongoURI,
		config.EnvMongoDBDatabase: database,
		config.EnvOpenAIAPIKey:    "sk-integration",
		config.EnvOpenAIBaseURL:   tc.OpenAI.URL,
		config.EnvLogLevel:        "error",
	}
}

// NewSequencer loads configuration from env, with no files on disk, and
// returns a sequencer whose listener is bound to a free loopback port.
func NewSequencer(dir string, env map[string]string) (*startup.Sequencer, error) {
	cfg, err := config.Load(config.LoadOptions{
		OverlayFile: filepath.Join(dir, ".env"),
		ConfigFile:  filepath.Join(dir, "chatproxy.yml"),
		LookupEnv: func(key string) (string, bool) {
			val, ok := env[key]
			return val, ok
		},
	})
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(io.Discard, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &startup.Sequencer{
		Config:  cfg,
		Console: console.New(io.Discard, termenv.WithProfile(termenv.Ascii)),
		Logger:  logger,
		Listen: func(network, _ string) (net.Listener, error) {
			return net.Listen(network, "127.0.0.1:0")
		},
	}, nil
}

// StartServer runs a sequencer in the background and waits until it serves
func StartServer(dir string, env map[string]string) (*ServerInstance, error) {
	seq, err := NewSequencer(dir, env)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	inst := &ServerInstance{Sequencer: seq, cancel: cancel, done: make(chan error, 1)}
	go func() {
		inst.done <- seq.Run(ctx)
	}()

	deadline := time.After(30 * time.Second)
	for {
		if seq.State() == startup.StateServing {
			inst.URL = "http://" + seq.Addr().String()
			return inst, nil
		}
		select {
		case err := <-inst.done:
			cancel()
			if err == nil {
				err = errors.New("server exited before serving")
			}
			return nil, err
		case <-deadline:
			cancel()
			return nil, errors.New("server did not start serving within 30s")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Stop cancels the server and waits for Run to return
func (s *ServerInstance) Stop() error {
	s.cancel()
	return <-s.done
}
