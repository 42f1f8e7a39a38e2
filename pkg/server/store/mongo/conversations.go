package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/model"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

// CollectionName is the collection holding conversation documents
const CollectionName = "conversations"

// Ensure ConversationsStore implements store.ConversationsStore
var _ store.ConversationsStore = (*ConversationsStore)(nil)

// ConversationsStore implements store.ConversationsStore using MongoDB
type ConversationsStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewConversationsStore creates a new ConversationsStore
func NewConversationsStore(db *mongo.Database) *ConversationsStore {
	return &ConversationsStore{coll: db.Collection(CollectionName), now: time.Now}
}

// Create stores a new conversation including its messages
func (s *ConversationsStore) Create(ctx context.Context, conversation *model.Conversation) error {
	_, err := s.coll.InsertOne(ctx, conversation)
	return err
}

// Get returns a conversation with all of its messages
func (s *ConversationsStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var conversation model.Conversation
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// List returns conversation summaries, most recently updated first
func (s *ConversationsStore) List(ctx context.Context, limit int64) ([]model.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"messages": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	conversations := make([]model.Conversation, 0)
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// AppendMessages adds messages to the end of a conversation
func (s *ConversationsStore) AppendMessages(ctx context.Context, id string, messages ...model.Message) error {
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"updatedAt": s.now().UTC()},
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrConversationNotFound
	}
	return nil
}

// Delete removes a conversation
func (s *ConversationsStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrConversationNotFound
	}
	return nil
}
