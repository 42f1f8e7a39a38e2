package endpoints

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/llm"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
)

// MockConversationsStore implements store.ConversationsStore for testing using testify/mock
type MockConversationsStore struct {
	mock.Mock
}

func (m *MockConversationsStore) Create(ctx context.Context, conversation *model.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *MockConversationsStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationsStore) List(ctx context.Context, limit int64) ([]model.Conversation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockConversationsStore) AppendMessages(ctx context.Context, id string, messages ...model.Message) error {
	args := m.Called(ctx, id, messages)
	return args.Error(0)
}

func (m *MockConversationsStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHealthStore implements store.HealthStore for testing using testify/mock
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckConnectivity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCompleter implements llm.Completer for testing using testify/mock
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, modelName string, messages []model.Message) (*llm.Completion, error) {
	args := m.Called(ctx, modelName, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}
