package endpoints

import (
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server"
)

// RegisterAll registers all API endpoints on the server. The chat routes
// are mounted first, then the root liveness route.
func RegisterAll(srv *server.Server) {
	RegisterChatEndpoints(srv)
	RegisterStatusEndpoints(srv)
	RegisterMetricsEndpoint(srv)
}
