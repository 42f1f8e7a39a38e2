package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

// StatusMessage is the fixed liveness message served at the root path
const StatusMessage = "API de ChatGPT funcionando correctamente"

const healthCheckTimeout = 2 * time.Second

// StatusResponse represents the response from GET /
type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse represents the response from GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the liveness and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	credentialMissing := s.Config.CredentialMissing()

	// GET / - Liveness and info (no input parameters)
	s.Router.HandleFunc("/", handleStatus(credentialMissing)).Methods("GET")

	// GET /healthz - Database connectivity
	s.Router.HandleFunc("/healthz", handleHealth(s.HealthStore)).Methods("GET")
}

func handleStatus(credentialMissing bool) http.HandlerFunc {
	status := "OpenAI configurado"
	if credentialMissing {
		status = "OpenAI sin configurar: falta OPENAI_API_KEY"
	}
	response := StatusResponse{Message: StatusMessage, Status: status}

	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, response)
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := healthStore.CheckConnectivity(ctx); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "error",
				Error:  "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
