// Package model defines the documents persisted by the chat proxy.
//
// # Documents
//
//   - Conversation: one chat thread, stored in the conversations collection
//   - Message: a single turn embedded in its conversation
//
// Documents are stored as-is; there is no schema migration step.
package model
