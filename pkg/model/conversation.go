package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles understood by the chat completion API
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const maxTitleLength = 60

type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Model     string    `bson:"model" json:"model"`
	Messages  []Message `bson:"messages,omitempty" json:"messages,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewConversation starts a conversation whose title is derived from the
// first user message.
func NewConversation(modelName, firstMessage string, now time.Time) *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		Title:     Title(firstMessage),
		Model:     modelName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Title shortens a message to a single line suitable as a conversation title.
func Title(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength-3]) + "..."
	}
	return title
}
