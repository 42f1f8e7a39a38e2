// Package server provides the HTTP server for the chat proxy.
//
// It uses gorilla/mux for routing and wraps the router with the
// cross-cutting behaviors every request goes through:
//
//   - panic recovery
//   - access logging into logrus
//   - CORS allowing any origin
//   - JSON body parsing
//   - per-route Prometheus metrics (inside the router)
//
// # Server Setup
//
//	srv := server.NewServer(cfg, logger, prometheus.NewRegistry())
//	srv.ConversationsStore = backend.Conversations()
//	srv.HealthStore = backend.Health()
//	srv.Completer = llm.NewOpenAIClient(llm.Config{APIKey: cfg.OpenAIAPIKey})
//	endpoints.RegisterAll(srv)
//	err := srv.Serve(listener)
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - GET / - Liveness and info
//   - GET /healthz - Database connectivity
//   - GET /metrics - Prometheus metrics
//   - POST /api/chat - Send a message, optionally continuing a conversation
//   - GET /api/chat/conversations - List conversations
//   - GET, DELETE /api/chat/conversations/{id} - Read or remove one conversation
package server
