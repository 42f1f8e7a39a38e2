package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/db"
	"github.com/doodlesbykumbi/chat-proxy-in-go/pkg/server/store"
)

// Backend bundles the MongoDB client with the stores built on it.
type Backend struct {
	client        *mongo.Client
	conversations *ConversationsStore
	health        *HealthStore
}

// Open connects to MongoDB and returns the stores.
func Open(ctx context.Context, cfg db.Config) (*Backend, error) {
	client, database, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Backend{
		client:        client,
		conversations: NewConversationsStore(database),
		health:        NewHealthStore(database),
	}, nil
}

func (b *Backend) Conversations() store.ConversationsStore { return b.conversations }

func (b *Backend) Health() store.HealthStore { return b.health }

// Close disconnects the client
func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
