package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/llm"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

func completion(content string) *llm.Completion {
	return &llm.Completion{
		Model:   "gpt-3.5-turbo-0125",
		Content: content,
		Usage:   llm.Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
	}
}

func TestChatSend(t *testing.T) {
	t.Run("new conversation", func(t *testing.T) {
		ts := newTestServer(t, nil)

		ts.completer.On("Complete", mock.Anything, "gpt-3.5-turbo", mock.MatchedBy(func(msgs []model.Message) bool {
			return len(msgs) == 1 && msgs[0].Role == model.RoleUser && msgs[0].Content == "hola"
		})).Return(completion("¡Hola!"), nil).Once()

		var saved *model.Conversation
		ts.conversations.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.Conversation)
		}).Return(nil).Once()

		w := ts.do("POST", "/api/chat", `{"message":"  hola "}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "¡Hola!", resp.Reply)
		assert.Equal(t, "gpt-3.5-turbo-0125", resp.Model)
		assert.Equal(t, 7, resp.Usage.TotalTokens)

		require.NotNil(t, saved)
		assert.Equal(t, saved.ID, resp.ConversationID)
		assert.Equal(t, "hola", saved.Title)
		require.Len(t, saved.Messages, 2)
		assert.Equal(t, model.RoleAssistant, saved.Messages[1].Role)
	})

	t.Run("trailing slash is accepted", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.completer.On("Complete", mock.Anything, "gpt-4o", mock.Anything).Return(completion("ok"), nil).Once()
		ts.conversations.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

		w := ts.do("POST", "/api/chat/", `{"message":"hola","model":"gpt-4o"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("continues an existing conversation", func(t *testing.T) {
		ts := newTestServer(t, nil)
		existing := &model.Conversation{
			ID:    "c1",
			Model: "gpt-4o-mini",
			Messages: []model.Message{
				{Role: model.RoleUser, Content: "hola"},
				{Role: model.RoleAssistant, Content: "¡Hola!"},
			},
		}
		ts.conversations.On("Get", mock.Anything, "c1").Return(existing, nil).Once()
		ts.completer.On("Complete", mock.Anything, "gpt-4o-mini", mock.MatchedBy(func(msgs []model.Message) bool {
			return len(msgs) == 3 && msgs[2].Content == "¿qué tal?"
		})).Return(completion("bien"), nil).Once()
		ts.conversations.On("AppendMessages", mock.Anything, "c1", mock.MatchedBy(func(msgs []model.Message) bool {
			return len(msgs) == 2 && msgs[0].Role == model.RoleUser && msgs[1].Content == "bien"
		})).Return(nil).Once()

		w := ts.do("POST", "/api/chat", `{"message":"¿qué tal?","conversationId":"c1"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"conversationId":"c1"`)
		assert.Len(t, existing.Messages, 2)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("Get", mock.Anything, "nope").Return(nil, store.ErrConversationNotFound).Once()

		w := ts.do("POST", "/api/chat", `{"message":"hola","conversationId":"nope"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			code int
		}{
			{"no body", "", http.StatusBadRequest},
			{"empty message", `{"message":"   "}`, http.StatusBadRequest},
			{"wrong type", `{"message":42}`, http.StatusBadRequest},
			{"array body", `[]`, http.StatusBadRequest},
			{"malformed json", `{"message":`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ts := newTestServer(t, nil)

				w := ts.do("POST", "/api/chat", tt.body)

				assert.Equal(t, tt.code, w.Code)
				assert.Contains(t, w.Body.String(), `"error"`)
			})
		}
	})

	t.Run("completion errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			code int
		}{
			{"missing credential", llm.ErrCredentialMissing, http.StatusServiceUnavailable},
			{"upstream failure", &llm.UpstreamError{StatusCode: 500, Err: errors.New("boom")}, http.StatusBadGateway},
			{"timeout", fmt.Errorf("post: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ts := newTestServer(t, nil)
				ts.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

				w := ts.do("POST", "/api/chat", `{"message":"hola"}`)

				assert.Equal(t, tt.code, w.Code)
			})
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(completion("ok"), nil).Once()
		ts.conversations.On("Create", mock.Anything, mock.Anything).Return(errors.New("write concern")).Once()

		w := ts.do("POST", "/api/chat", `{"message":"hola"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestChatConversations(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("list with default limit", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("List", mock.Anything, int64(defaultListLimit)).Return([]model.Conversation{
			{ID: "c1", Title: "hola", CreatedAt: now, UpdatedAt: now},
		}, nil).Once()

		w := ts.do("GET", "/api/chat/conversations", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"c1"`)
	})

	t.Run("list caps limit", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("List", mock.Anything, int64(maxListLimit)).Return([]model.Conversation{}, nil).Once()

		w := ts.do("GET", "/api/chat/conversations?limit=5000", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	t.Run("list rejects bad limit", func(t *testing.T) {
		ts := newTestServer(t, nil)

		w := ts.do("GET", "/api/chat/conversations?limit=-1", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("Get", mock.Anything, "c1").Return(&model.Conversation{
			ID:       "c1",
			Messages: []model.Message{{Role: model.RoleUser, Content: "hola"}},
		}, nil).Once()

		w := ts.do("GET", "/api/chat/conversations/c1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"content":"hola"`)
	})

	t.Run("get missing", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("Get", mock.Anything, "c2").Return(nil, store.ErrConversationNotFound).Once()

		w := ts.do("GET", "/api/chat/conversations/c2", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		ts := newTestServer(t, nil)
		ts.conversations.On("Delete", mock.Anything, "c1").Return(nil).Once()
		ts.conversations.On("Delete", mock.Anything, "c2").Return(store.ErrConversationNotFound).Once()

		assert.Equal(t, http.StatusNoContent, ts.do("DELETE", "/api/chat/conversations/c1", "").Code)
		assert.Equal(t, http.StatusNotFound, ts.do("DELETE", "/api/chat/conversations/c2", "").Code)
	})
}

func TestChatRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	ts := newTestServer(t, cfg)
	ts.conversations.On("List", mock.Anything, mock.Anything).Return([]model.Conversation{}, nil).Once()

	assert.Equal(t, http.StatusOK, ts.do("GET", "/api/chat/conversations", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do("GET", "/api/chat/conversations", "").Code)
	// Routes outside /api/chat are not limited
	assert.Equal(t, http.StatusOK, ts.do("GET", "/", "").Code)
}
