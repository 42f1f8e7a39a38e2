package store

import (
	"context"
	"errors"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
)

// ErrConversationNotFound is returned when no conversation has the given ID
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationsStore abstracts conversation storage operations
type ConversationsStore interface {
	// Create stores a new conversation including its messages
	Create(ctx context.Context, conversation *model.Conversation) error

	// Get returns a conversation with all of its messages
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// List returns conversation summaries, most recently updated first.
	// Messages are not populated.
	List(ctx context.Context, limit int64) ([]model.Conversation, error)

	// AppendMessages adds messages to the end of a conversation
	AppendMessages(ctx context.Context, id string, messages ...model.Message) error

	// Delete removes a conversation
	Delete(ctx context.Context, id string) error
}
