package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultDatabase is used when neither the URI nor the configuration names one
const DefaultDatabase = "chatgpt"

// Config holds database connection configuration
type Config struct {
	// URI is the MongoDB connection string
	URI string
	// Database overrides the database named in the URI
	Database string
	// Timeout bounds server selection and the initial ping
	Timeout time.Duration
}

// Connect establishes a MongoDB connection and verifies it with a ping, so
// an unreachable or rejecting server is reported here rather than on the
// first request.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("MONGODB_URI is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
		opts.SetConnectTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to reach database: %w", err)
	}

	name := cfg.Database
	if name == "" {
		name = DatabaseName(cfg.URI, DefaultDatabase)
	}

	return client, client.Database(name), nil
}

// DatabaseName returns the database named in the URI path, or fallback.
func DatabaseName(uri, fallback string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return fallback
	}
	return cs.Database
}
