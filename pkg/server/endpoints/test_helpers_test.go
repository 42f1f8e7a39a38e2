package endpoints

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/config"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/logging"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server"
)

type testServer struct {
	*server.Server
	conversations *MockConversationsStore
	health        *MockHealthStore
	completer     *MockCompleter
}

func testConfig() *config.Config {
	return &config.Config{
		Port:          "6000",
		MongoDBURI:    "mongodb://localhost/test",
		OpenAIAPIKey:  "sk-test",
		BindAddress:   "127.0.0.1",
		OpenAIModel:   "gpt-3.5-turbo",
		OpenAIBaseURL: config.DefaultOpenAIBaseURL,
		MaxBodyBytes:  config.DefaultMaxBodyBytes,
	}
}

// newTestServer returns a server with mocked stores and all endpoints registered
func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}

	s := server.NewServer(cfg, logging.Discard(), prometheus.NewRegistry())
	ts := &testServer{
		Server:        s,
		conversations: &MockConversationsStore{},
		health:        &MockHealthStore{},
		completer:     &MockCompleter{},
	}
	s.ConversationsStore = ts.conversations
	s.HealthStore = ts.health
	s.Completer = ts.completer
	RegisterAll(s)

	t.Cleanup(func() {
		// Releases the access log pipe and its reader goroutine
		assert.NoError(t, s.Shutdown(context.Background()))
		ts.conversations.AssertExpectations(t)
		ts.health.AssertExpectations(t)
		ts.completer.AssertExpectations(t)
	})
	return ts
}

// do sends a request through the full middleware chain
func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

