package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/llm"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ChatRequest is the payload accepted by POST /api/chat
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	Model          string `json:"model,omitempty"`
}

// ChatResponse is the reply to POST /api/chat
type ChatResponse struct {
	ConversationID string    `json:"conversationId"`
	Reply          string    `json:"reply"`
	Model          string    `json:"model"`
	Usage          llm.Usage `json:"usage"`
}

type chatHandler struct {
	conversations store.ConversationsStore
	completer     llm.Completer
	defaultModel  string
	logger        logrus.FieldLogger
	now           func() time.Time
}

// RegisterChatEndpoints mounts the chat routes under /api/chat
func RegisterChatEndpoints(s *server.Server) {
	h := &chatHandler{
		conversations: s.ConversationsStore,
		completer:     s.Completer,
		defaultModel:  s.Config.OpenAIModel,
		logger:        s.Logger.WithField("component", "chat"),
		now:           time.Now,
	}

	chat := s.Router.PathPrefix("/api/chat").Subrouter()
	chat.Use(s.Limiter.Middleware)

	// POST /api/chat - Send a message, optionally continuing a conversation
	chat.HandleFunc("", h.handleSend).Methods("POST")
	chat.HandleFunc("/", h.handleSend).Methods("POST")

	// GET /api/chat/conversations - List conversations
	chat.HandleFunc("/conversations", h.handleList).Methods("GET")

	// GET /api/chat/conversations/{id} - Fetch a conversation with its messages
	chat.HandleFunc("/conversations/{id}", h.handleGet).Methods("GET")

	// DELETE /api/chat/conversations/{id} - Delete a conversation
	chat.HandleFunc("/conversations/{id}", h.handleDelete).Methods("DELETE")
}

func (h *chatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if body := middleware.Body(r); body != nil {
		if err := json.Unmarshal(body, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid chat request")
			return
		}
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	now := h.now().UTC()

	var conversation *model.Conversation
	isNew := req.ConversationID == ""
	if isNew {
		conversation = model.NewConversation(h.defaultModel, message, now)
	} else {
		var err error
		conversation, err = h.conversations.Get(ctx, req.ConversationID)
		if errors.Is(err, store.ErrConversationNotFound) {
			respondWithError(w, http.StatusNotFound, "conversation not found")
			return
		}
		if err != nil {
			h.logger.WithError(err).WithField("conversation", req.ConversationID).Error("failed to load conversation")
			respondWithError(w, http.StatusInternalServerError, "failed to load conversation")
			return
		}
	}

	modelName := req.Model
	if modelName == "" {
		modelName = conversation.Model
	}
	if modelName == "" {
		modelName = h.defaultModel
	}

	userMessage := model.Message{Role: model.RoleUser, Content: message, CreatedAt: now}
	history := append(append([]model.Message{}, conversation.Messages...), userMessage)

	completion, err := h.completer.Complete(ctx, modelName, history)
	if err != nil {
		h.respondCompletionError(w, err)
		return
	}

	assistantMessage := model.Message{Role: model.RoleAssistant, Content: completion.Content, CreatedAt: h.now().UTC()}

	if isNew {
		conversation.Messages = []model.Message{userMessage, assistantMessage}
		err = h.conversations.Create(ctx, conversation)
	} else {
		err = h.conversations.AppendMessages(ctx, conversation.ID, userMessage, assistantMessage)
	}
	if err != nil {
		h.logger.WithError(err).WithField("conversation", conversation.ID).Error("failed to save conversation")
		respondWithError(w, http.StatusInternalServerError, "failed to save conversation")
		return
	}

	replyModel := completion.Model
	if replyModel == "" {
		replyModel = modelName
	}

	respondWithJSON(w, http.StatusOK, ChatResponse{
		ConversationID: conversation.ID,
		Reply:          completion.Content,
		Model:          replyModel,
		Usage:          completion.Usage,
	})
}

func (h *chatHandler) respondCompletionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, llm.ErrCredentialMissing):
		h.logger.Warn("chat request rejected: OPENAI_API_KEY is not configured")
		respondWithError(w, http.StatusServiceUnavailable, "OpenAI API key is not configured")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WithError(err).Error("chat completion timed out")
		respondWithError(w, http.StatusGatewayTimeout, "chat completion timed out")
	default:
		h.logger.WithError(err).Error("chat completion failed")
		respondWithError(w, http.StatusBadGateway, "chat completion failed")
	}
}

func (h *chatHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maxListLimit {
			parsed = maxListLimit
		}
		limit = parsed
	}

	conversations, err := h.conversations.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list conversations")
		respondWithError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	respondWithJSON(w, http.StatusOK, conversations)
}

func (h *chatHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conversation, err := h.conversations.Get(r.Context(), id)
	if errors.Is(err, store.ErrConversationNotFound) {
		respondWithError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("conversation", id).Error("failed to load conversation")
		respondWithError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	respondWithJSON(w, http.StatusOK, conversation)
}

func (h *chatHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.conversations.Delete(r.Context(), id)
	if errors.Is(err, store.ErrConversationNotFound) {
		respondWithError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("conversation", id).Error("failed to delete conversation")
		respondWithError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
