// Package store provides storage abstractions for the chat proxy server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints to be decoupled from the specific database implementation.
//
// # Available Stores
//
//   - ConversationsStore: Conversation documents and their messages
//   - HealthStore: Database connectivity checks
//
// # Usage
//
//	conversation, err := conversations.Get(ctx, id)
//	if err != nil {
//	    if errors.Is(err, store.ErrConversationNotFound) {
//	        // Handle not found
//	    }
//	}
package store
